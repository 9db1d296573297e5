package domain

import "time"

// Identity is the anonymous caller identity used to deduplicate engagement:
// a session token persisted client-side plus a one-way hash of the caller's
// network address. Either component may be empty; both empty means the caller
// is unidentifiable and engagement writes must be skipped.
type Identity struct {
	SessionID string
	IPHash    string
}

// Anonymous reports whether no session could be established for the caller.
func (id Identity) Anonymous() bool {
	return id.SessionID == ""
}

// Known reports whether at least one identity component is present.
func (id Identity) Known() bool {
	return id.SessionID != "" || id.IPHash != ""
}

// Episode is the engagement-side record of an article. Created lazily the
// first time any view, like, or comment references the slug; never deleted.
type Episode struct {
	Slug  string  `db:"slug"`
	Title *string `db:"title"`
}

// View records that an identity has seen an episode. At most one row exists
// per (slug, session_id).
type View struct {
	ID        int64     `db:"id"`
	Slug      string    `db:"slug"`
	SessionID string    `db:"session_id"`
	IPHash    *string   `db:"ip_hash"`
	CreatedAt time.Time `db:"created_at"`
}

// Like is a toggleable endorsement of an episode by an identity.
type Like struct {
	ID        int64     `db:"id"`
	Slug      string    `db:"slug"`
	SessionID string    `db:"session_id"`
	IPHash    *string   `db:"ip_hash"`
	CreatedAt time.Time `db:"created_at"`
}

// Comment is an append-only threaded comment on an episode.
type Comment struct {
	ID        int64     `db:"id"`
	Slug      string    `db:"slug"`
	SessionID string    `db:"session_id"`
	IPHash    *string   `db:"ip_hash"`
	Content   string    `db:"content"`
	ParentID  *int64    `db:"parent_id"`
	CreatedAt time.Time `db:"created_at"`
}

// CommentView is the public projection of a comment. Identity fields are
// never exposed to readers.
type CommentView struct {
	ID        int64     `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	ParentID  *int64    `db:"parent_id" json:"parentId,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// EngagementInfo is the per-episode engagement snapshot for one caller.
type EngagementInfo struct {
	Views int  `json:"views"`
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// EngagementTotals is the aggregate used by listing pages.
type EngagementTotals struct {
	Views int `json:"views"`
	Likes int `json:"likes"`
}

// ToggleResult is the outcome of a like toggle.
type ToggleResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}
