package domain

import "errors"

// Error taxonomy for the engagement and comment subsystem. All of these are
// request-local and recoverable; none should terminate the process.
var (
	// ErrCommentTooShort and ErrCommentTooLong reject comment content outside
	// the allowed length bounds after trimming.
	ErrCommentTooShort = errors.New("comment: content too short")
	ErrCommentTooLong  = errors.New("comment: content too long")

	// ErrRateLimited rejects a comment submitted within the trailing
	// rate-limit window for the same identity and episode.
	ErrRateLimited = errors.New("comment: too frequent, try again later")

	// ErrNoSession means no session token could be established for the
	// caller. Engagement paths degrade to zeroed results instead of
	// surfacing it; the comment path returns it.
	ErrNoSession = errors.New("identity: no session available")

	// ErrDuplicateLike is returned by the like store when the uniqueness
	// constraint rejects a concurrent double-insert. The service swallows
	// it: the other writer won.
	ErrDuplicateLike = errors.New("like: already recorded")

	// ErrEpisodeNotFound is propagated for direct lookups of unknown slugs.
	ErrEpisodeNotFound = errors.New("episode: not found")
)

// IsUserFacing reports whether err carries a message safe to show callers
// verbatim.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrCommentTooShort) ||
		errors.Is(err, ErrCommentTooLong) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrEpisodeNotFound)
}
