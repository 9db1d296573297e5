package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"techblog/internal/domain"
)

type CommentStore struct {
	db *sqlx.DB
}

func NewCommentStore(db *sqlx.DB) *CommentStore {
	return &CommentStore{db: db}
}

// Insert appends a comment and fills in the generated id and timestamp.
func (s *CommentStore) Insert(ctx context.Context, comment *domain.Comment) error {
	query := `
		INSERT INTO comments (slug, session_id, ip_hash, content, parent_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING id, created_at`

	var ipHash string
	if comment.IPHash != nil {
		ipHash = *comment.IPHash
	}

	return GetExecutor(ctx, s.db).
		QueryRowxContext(ctx, query, comment.Slug, comment.SessionID, ipHash, comment.Content, comment.ParentID).
		Scan(&comment.ID, &comment.CreatedAt)
}

// ListBySlug returns the public projection of all comments on slug, oldest
// first. Identity columns stay out of the select list.
func (s *CommentStore) ListBySlug(ctx context.Context, slug string) ([]domain.CommentView, error) {
	query := `
		SELECT id, content, parent_id, created_at
		FROM comments
		WHERE slug = $1
		ORDER BY created_at ASC`

	var comments []domain.CommentView
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &comments, query, slug)
	return comments, err
}

// ExistsSince reports whether the identity already commented on slug at or
// after the given instant, matching on session token or address hash.
func (s *CommentStore) ExistsSince(ctx context.Context, slug string, ident domain.Identity, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM comments
			WHERE slug = $1
			  AND created_at >= $4
			  AND (($2 <> '' AND session_id = $2) OR ($3 <> '' AND ip_hash = $3))
		)`

	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists, query, slug, ident.SessionID, ident.IPHash, since)
	return exists, err
}
