package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"techblog/internal/domain"
)

// uniqueViolation is the postgres error code for unique constraint failures.
const uniqueViolation = "23505"

type LikeStore struct {
	db *sqlx.DB
}

func NewLikeStore(db *sqlx.DB) *LikeStore {
	return &LikeStore{db: db}
}

// FindByIdentity returns the live like on slug held by the identity, matching
// on either the session token or the address hash, or nil when there is none.
func (s *LikeStore) FindByIdentity(ctx context.Context, slug string, ident domain.Identity) (*domain.Like, error) {
	if !ident.Known() {
		return nil, nil
	}

	query := `
		SELECT id, slug, session_id, ip_hash, created_at
		FROM likes
		WHERE slug = $1
		  AND (($2 <> '' AND session_id = $2) OR ($3 <> '' AND ip_hash = $3))
		LIMIT 1`

	var like domain.Like
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &like, query, slug, ident.SessionID, ident.IPHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Insert adds a like row. A uniqueness violation from a concurrent
// double-toggle is reported as domain.ErrDuplicateLike so callers can treat
// it as "the other writer won".
func (s *LikeStore) Insert(ctx context.Context, slug, sessionID, ipHash string) error {
	query := `
		INSERT INTO likes (slug, session_id, ip_hash)
		VALUES ($1, $2, NULLIF($3, ''))`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, slug, sessionID, ipHash)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrDuplicateLike
	}
	return err
}

func (s *LikeStore) Delete(ctx context.Context, id int64) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, `DELETE FROM likes WHERE id = $1`, id)
	return err
}

func (s *LikeStore) CountBySlug(ctx context.Context, slug string) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count,
		`SELECT COUNT(*) FROM likes WHERE slug = $1`, slug)
	return count, err
}

func (s *LikeStore) CountBySlugs(ctx context.Context, slugs []string) (map[string]int, error) {
	return countBySlugs(ctx, GetExecutor(ctx, s.db), "likes", slugs)
}
