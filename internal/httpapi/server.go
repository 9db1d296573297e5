package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"techblog/internal/content"
	"techblog/internal/domain"
)

type EngagementService interface {
	RecordView(ctx context.Context, ident domain.Identity, slug, title string) (domain.EngagementInfo, error)
	ToggleLike(ctx context.Context, ident domain.Identity, slug, title string) (domain.ToggleResult, error)
	Engagement(ctx context.Context, ident domain.Identity, slug, title string) (domain.EngagementInfo, error)
	Totals(ctx context.Context, slugs []string) (map[string]domain.EngagementTotals, error)
}

type CommentService interface {
	Create(ctx context.Context, ident domain.Identity, slug, content string, parentID *int64) (*domain.Comment, error)
	List(ctx context.Context, slug string) ([]domain.CommentView, error)
}

type ContentIndex interface {
	Episodes(ctx context.Context) ([]content.Meta, error)
	EpisodeBySlug(ctx context.Context, slug string) (*content.Episode, error)
}

// IdentityResolver derives the caller identity, optionally minting a session
// cookie on the response.
type IdentityResolver interface {
	Resolve(w http.ResponseWriter, r *http.Request, create bool) domain.Identity
}

// Handler exposes the public read/write surface over HTTP. Rendering is the
// frontend's job; this API serves episode metadata, bodies, engagement
// counters, and comments as JSON.
type Handler struct {
	engagement EngagementService
	comments   CommentService
	index      ContentIndex
	identity   IdentityResolver
	logger     *slog.Logger
}

func NewHandler(
	engagement EngagementService,
	comments CommentService,
	index ContentIndex,
	identity IdentityResolver,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		engagement: engagement,
		comments:   comments,
		index:      index,
		identity:   identity,
		logger:     logger.With("component", "httpapi"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)

	r.Route("/episodes", func(r chi.Router) {
		r.Get("/", h.listEpisodes)
		r.Route("/{slug}", func(r chi.Router) {
			r.Get("/", h.getEpisode)
			r.Post("/view", h.recordView)
			r.Post("/like", h.toggleLike)
			r.Get("/comments", h.listComments)
			r.Post("/comments", h.createComment)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
