package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type ViewStore struct {
	db *sqlx.DB
}

func NewViewStore(db *sqlx.DB) *ViewStore {
	return &ViewStore{db: db}
}

// ExistsForIPHash reports whether any session already holds a view on slug
// from the given address hash. The address-based check fires before the
// session-based upsert so shared addresses count once.
func (s *ViewStore) ExistsForIPHash(ctx context.Context, slug, ipHash string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM views WHERE slug = $1 AND ip_hash = $2)`

	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists, query, slug, ipHash)
	return exists, err
}

// Upsert records a view keyed on (slug, session_id). A repeat view from the
// same session only refreshes the stored address hash, never adds a row.
func (s *ViewStore) Upsert(ctx context.Context, slug, sessionID, ipHash string) error {
	query := `
		INSERT INTO views (slug, session_id, ip_hash)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (slug, session_id) DO UPDATE SET
			ip_hash = EXCLUDED.ip_hash`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, slug, sessionID, ipHash)
	return err
}

func (s *ViewStore) CountBySlug(ctx context.Context, slug string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		`SELECT COUNT(*) FROM views WHERE slug = $1`, slug)
	return count, err
}

func (s *ViewStore) CountBySlugs(ctx context.Context, slugs []string) (map[string]int, error) {
	return countBySlugs(ctx, GetExecutor(ctx, s.db), "views", slugs)
}

type slugCount struct {
	Slug  string `db:"slug"`
	Count int    `db:"count"`
}

// countBySlugs is the shared grouped-count query behind the batch totals
// used by listing pages. table is always a literal, never user input.
func countBySlugs(ctx context.Context, ext sqlx.ExtContext, table string, slugs []string) (map[string]int, error) {
	result := make(map[string]int, len(slugs))
	if len(slugs) == 0 {
		return result, nil
	}

	query := `SELECT slug, COUNT(*) AS count FROM ` + table + ` WHERE slug = ANY($1) GROUP BY slug`

	var rows []slugCount
	if err := sqlx.SelectContext(ctx, ext, &rows, query, pq.Array(slugs)); err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.Slug] = row.Count
	}
	return result, nil
}
