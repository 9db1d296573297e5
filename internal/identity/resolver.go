package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"techblog/internal/domain"
)

const (
	// SessionCookie is the name of the session cookie.
	SessionCookie = "sid"
	// sessionMaxAge is one year in seconds.
	sessionMaxAge = 60 * 60 * 24 * 365
)

// proxy headers checked for the caller address, first match wins
var addressHeaders = []string{"X-Forwarded-For", "X-Real-Ip", "X-Client-Ip"}

// Resolver derives an anonymous caller identity from a request: the session
// token stored in the sid cookie plus a one-way hash of the network address
// reported by the reverse proxy. The raw address is never retained.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the caller identity. When create is true and no session
// cookie is present, a fresh token is generated and set on the response;
// read-only callers must pass create=false so they never mint state.
func (r *Resolver) Resolve(w http.ResponseWriter, req *http.Request, create bool) domain.Identity {
	return domain.Identity{
		SessionID: r.sessionID(w, req, create),
		IPHash:    HashAddress(ClientAddress(req.Header)),
	}
}

func (r *Resolver) sessionID(w http.ResponseWriter, req *http.Request, create bool) string {
	if cookie, err := req.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	if !create {
		return ""
	}

	fresh := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    fresh,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return fresh
}

// ClientAddress extracts the caller's network address from proxy headers,
// taking the first comma-separated value of the first header present.
// Returns "" when no header is set.
func ClientAddress(h http.Header) string {
	for _, name := range addressHeaders {
		if value := h.Get(name); value != "" {
			first, _, _ := strings.Cut(value, ",")
			return strings.TrimSpace(first)
		}
	}
	return ""
}

// HashAddress returns the hex-encoded sha256 digest of addr, or "" for an
// empty address.
func HashAddress(addr string) string {
	if addr == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])
}
