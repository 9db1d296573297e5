package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Indexer rebuilds the content index from the filesystem.
type Indexer interface {
	Reindex(ctx context.Context) error
}

// Scheduler periodically rebuilds a cached content index so long-running
// deployments pick up documents added after startup without a restart.
type Scheduler struct {
	indexer  Indexer
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(indexer Indexer, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		indexer:  indexer,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("reindex scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reindex scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runReindex(ctx)
		}
	}
}

func (s *Scheduler) runReindex(ctx context.Context) {
	reindexCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := s.indexer.Reindex(reindexCtx); err != nil {
		s.logger.Error("reindex failed", "error", err)
	}
}
