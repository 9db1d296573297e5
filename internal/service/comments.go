package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"techblog/internal/domain"
)

// CommentConfig bounds comment content and throttles submission frequency.
type CommentConfig struct {
	MinLength int
	MaxLength int
	// RateLimitWindow allows at most one comment per identity per episode
	// within the trailing window. Zero disables the limit.
	RateLimitWindow time.Duration
}

// CommentService handles append-only threaded comments: validation, rate
// limiting, persistence, and the cache-invalidation signal.
type CommentService struct {
	episodes  EpisodeStore
	comments  CommentStore
	publisher InvalidationPublisher
	logger    *slog.Logger
	config    CommentConfig
	now       func() time.Time
}

func NewCommentService(
	episodes EpisodeStore,
	comments CommentStore,
	publisher InvalidationPublisher,
	logger *slog.Logger,
	cfg CommentConfig,
) *CommentService {
	return &CommentService{
		episodes:  episodes,
		comments:  comments,
		publisher: publisher,
		logger:    logger.With("service", "comments"),
		config:    cfg,
		now:       time.Now,
	}
}

// Create validates and appends a comment, then signals the presentation
// layer to invalidate the episode page. Content length is measured in runes
// after trimming.
func (s *CommentService) Create(ctx context.Context, ident domain.Identity, slug, content string, parentID *int64) (*domain.Comment, error) {
	clean := strings.TrimSpace(content)
	if utf8.RuneCountInString(clean) < s.config.MinLength {
		return nil, domain.ErrCommentTooShort
	}
	if utf8.RuneCountInString(clean) > s.config.MaxLength {
		return nil, domain.ErrCommentTooLong
	}

	if ident.Anonymous() {
		return nil, domain.ErrNoSession
	}

	if s.config.RateLimitWindow > 0 {
		since := s.now().Add(-s.config.RateLimitWindow)
		recent, err := s.comments.ExistsSince(ctx, slug, ident, since)
		if err != nil {
			return nil, fmt.Errorf("check rate limit: %w", err)
		}
		if recent {
			return nil, domain.ErrRateLimited
		}
	}

	if err := s.episodes.Upsert(ctx, slug, ""); err != nil {
		return nil, fmt.Errorf("upsert episode: %w", err)
	}

	comment := &domain.Comment{
		Slug:      slug,
		SessionID: ident.SessionID,
		Content:   clean,
		ParentID:  parentID,
	}
	if ident.IPHash != "" {
		comment.IPHash = &ident.IPHash
	}

	if err := s.comments.Insert(ctx, comment); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishInvalidation(ctx, slug); err != nil {
			s.logger.Error("publish invalidation failed", "slug", slug, "error", err)
		}
	}

	return comment, nil
}

// List returns all comments on slug oldest first, public fields only.
func (s *CommentService) List(ctx context.Context, slug string) ([]domain.CommentView, error) {
	comments, err := s.comments.ListBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("list comments for %q: %w", slug, err)
	}
	return comments, nil
}
