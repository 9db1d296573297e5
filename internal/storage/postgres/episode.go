package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type EpisodeStore struct {
	db *sqlx.DB
}

func NewEpisodeStore(db *sqlx.DB) *EpisodeStore {
	return &EpisodeStore{db: db}
}

// Upsert creates the episode row on first reference and refreshes the
// denormalized title when a non-empty one is supplied. An empty title never
// clears a previously stored one.
func (s *EpisodeStore) Upsert(ctx context.Context, slug, title string) error {
	query := `
		INSERT INTO episodes (slug, title)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (slug) DO UPDATE SET
			title = COALESCE(NULLIF(EXCLUDED.title, ''), episodes.title)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, slug, title)
	return err
}
