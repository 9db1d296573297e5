package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"techblog/internal/domain"
)

// EngagementService tracks per-episode views and likes deduplicated by
// anonymous identity. All identity resolution happens at the transport
// boundary; methods receive the resolved identity and degrade to zeroed
// results when no session exists.
type EngagementService struct {
	episodes  EpisodeStore
	views     ViewStore
	likes     LikeStore
	txManager TransactionManager
	logger    *slog.Logger
}

func NewEngagementService(
	episodes EpisodeStore,
	views ViewStore,
	likes LikeStore,
	txManager TransactionManager,
	logger *slog.Logger,
) *EngagementService {
	return &EngagementService{
		episodes:  episodes,
		views:     views,
		likes:     likes,
		txManager: txManager,
		logger:    logger.With("service", "engagement"),
	}
}

// RecordView counts at most one view per identity per episode. The episode
// upsert, the address-hash short-circuit, and the view upsert run in one
// transaction. When an address hash already holds a view under any session,
// the new session is not counted: address-based dedup takes priority.
func (s *EngagementService) RecordView(ctx context.Context, ident domain.Identity, slug, title string) (domain.EngagementInfo, error) {
	if ident.Anonymous() {
		return domain.EngagementInfo{}, nil
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.episodes.Upsert(txCtx, slug, title); err != nil {
			return fmt.Errorf("upsert episode: %w", err)
		}

		if ident.IPHash != "" {
			counted, err := s.views.ExistsForIPHash(txCtx, slug, ident.IPHash)
			if err != nil {
				return fmt.Errorf("check address views: %w", err)
			}
			if counted {
				return nil
			}
		}

		if err := s.views.Upsert(txCtx, slug, ident.SessionID, ident.IPHash); err != nil {
			return fmt.Errorf("upsert view: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.EngagementInfo{}, fmt.Errorf("record view for %q: %w", slug, err)
	}

	return s.snapshot(ctx, ident, slug)
}

// ToggleLike flips the identity's like on the episode and returns the
// post-toggle state. A duplicate insert under a concurrent double-toggle is
// swallowed; a later toggle cleans the extra row up through the delete path.
func (s *EngagementService) ToggleLike(ctx context.Context, ident domain.Identity, slug, title string) (domain.ToggleResult, error) {
	if ident.Anonymous() {
		return domain.ToggleResult{}, nil
	}

	if err := s.episodes.Upsert(ctx, slug, title); err != nil {
		return domain.ToggleResult{}, fmt.Errorf("upsert episode: %w", err)
	}

	existing, err := s.likes.FindByIdentity(ctx, slug, ident)
	if err != nil {
		return domain.ToggleResult{}, fmt.Errorf("find like: %w", err)
	}

	if existing != nil {
		if err := s.likes.Delete(ctx, existing.ID); err != nil {
			return domain.ToggleResult{}, fmt.Errorf("delete like: %w", err)
		}
	} else {
		err := s.likes.Insert(ctx, slug, ident.SessionID, ident.IPHash)
		if errors.Is(err, domain.ErrDuplicateLike) {
			s.logger.Debug("concurrent like insert, other writer won", "slug", slug)
		} else if err != nil {
			return domain.ToggleResult{}, fmt.Errorf("insert like: %w", err)
		}
	}

	likes, err := s.likes.CountBySlug(ctx, slug)
	if err != nil {
		return domain.ToggleResult{}, fmt.Errorf("count likes: %w", err)
	}

	return domain.ToggleResult{Liked: existing == nil, Likes: likes}, nil
}

// Engagement is the read path: counts plus whether this caller currently
// holds a like. It still refreshes the episode's denormalized title but
// never creates identity state; anonymous callers simply read liked=false.
func (s *EngagementService) Engagement(ctx context.Context, ident domain.Identity, slug, title string) (domain.EngagementInfo, error) {
	if err := s.episodes.Upsert(ctx, slug, title); err != nil {
		return domain.EngagementInfo{}, fmt.Errorf("upsert episode: %w", err)
	}

	return s.snapshot(ctx, ident, slug)
}

// Totals returns view and like counts for every requested slug, defaulting
// unseen slugs to zero. Two grouped queries regardless of len(slugs).
func (s *EngagementService) Totals(ctx context.Context, slugs []string) (map[string]domain.EngagementTotals, error) {
	totals := make(map[string]domain.EngagementTotals, len(slugs))
	for _, slug := range slugs {
		totals[slug] = domain.EngagementTotals{}
	}
	if len(slugs) == 0 {
		return totals, nil
	}

	views, err := s.views.CountBySlugs(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}
	likes, err := s.likes.CountBySlugs(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}

	for slug := range totals {
		totals[slug] = domain.EngagementTotals{
			Views: views[slug],
			Likes: likes[slug],
		}
	}
	return totals, nil
}

func (s *EngagementService) snapshot(ctx context.Context, ident domain.Identity, slug string) (domain.EngagementInfo, error) {
	views, err := s.views.CountBySlug(ctx, slug)
	if err != nil {
		return domain.EngagementInfo{}, fmt.Errorf("count views: %w", err)
	}

	likes, err := s.likes.CountBySlug(ctx, slug)
	if err != nil {
		return domain.EngagementInfo{}, fmt.Errorf("count likes: %w", err)
	}

	var liked bool
	if ident.Known() {
		existing, err := s.likes.FindByIdentity(ctx, slug, ident)
		if err != nil {
			return domain.EngagementInfo{}, fmt.Errorf("find like: %w", err)
		}
		liked = existing != nil
	}

	return domain.EngagementInfo{Views: views, Likes: likes, Liked: liked}, nil
}
