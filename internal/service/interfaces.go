package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"techblog/internal/domain"
)

type EpisodeStore interface {
	Upsert(ctx context.Context, slug, title string) error
}

type ViewStore interface {
	ExistsForIPHash(ctx context.Context, slug, ipHash string) (bool, error)
	Upsert(ctx context.Context, slug, sessionID, ipHash string) error
	CountBySlug(ctx context.Context, slug string) (int, error)
	CountBySlugs(ctx context.Context, slugs []string) (map[string]int, error)
}

type LikeStore interface {
	FindByIdentity(ctx context.Context, slug string, ident domain.Identity) (*domain.Like, error)
	Insert(ctx context.Context, slug, sessionID, ipHash string) error
	Delete(ctx context.Context, id int64) error
	CountBySlug(ctx context.Context, slug string) (int, error)
	CountBySlugs(ctx context.Context, slugs []string) (map[string]int, error)
}

type CommentStore interface {
	Insert(ctx context.Context, comment *domain.Comment) error
	ListBySlug(ctx context.Context, slug string) ([]domain.CommentView, error)
	ExistsSince(ctx context.Context, slug string, ident domain.Identity, since time.Time) (bool, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// InvalidationPublisher signals the presentation cache that an episode page
// changed. Failures are logged, not surfaced: the write already committed.
type InvalidationPublisher interface {
	PublishInvalidation(ctx context.Context, slug string) error
	Close() error
}
