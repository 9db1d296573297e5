package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"techblog/internal/config"
	"techblog/internal/content"
	"techblog/internal/httpapi"
	"techblog/internal/identity"
	"techblog/internal/publisher"
	"techblog/internal/scheduler"
	"techblog/internal/service"
	"techblog/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// The invalidation publisher is optional: without a broker URL comment
	// writes simply skip the downstream cache purge.
	var invalidations service.InvalidationPublisher
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		invalidations = rabbitMQ
	} else {
		logger.Info("rabbitmq url not set, invalidation publishing disabled")
	}

	episodeStore := postgres.NewEpisodeStore(db)
	viewStore := postgres.NewViewStore(db)
	likeStore := postgres.NewLikeStore(db)
	commentStore := postgres.NewCommentStore(db)
	txManager := postgres.NewTransactionManager(db)

	engagementService := service.NewEngagementService(
		episodeStore,
		viewStore,
		likeStore,
		txManager,
		logger,
	)

	commentService := service.NewCommentService(
		episodeStore,
		commentStore,
		invalidations,
		logger,
		service.CommentConfig{
			MinLength:       cfg.Comments.MinLength,
			MaxLength:       cfg.Comments.MaxLength,
			RateLimitWindow: cfg.Comments.RateLimitWindow,
		},
	)

	index := content.NewIndex(content.Config{
		Dir:   cfg.Content.Dir,
		Cache: cfg.Content.Cache,
	}, logger)

	handler := httpapi.NewHandler(
		engagementService,
		commentService,
		index,
		identity.NewResolver(),
		logger,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if cfg.Content.Cache && cfg.Content.ReindexInterval > 0 {
		sched := scheduler.NewScheduler(index, cfg.Content.ReindexInterval, logger)
		go func() {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("scheduler error", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	logger.Info("starting server",
		"addr", cfg.Server.Addr,
		"content_dir", cfg.Content.Dir,
		"content_cache", cfg.Content.Cache,
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
