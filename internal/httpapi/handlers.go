package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"techblog/internal/content"
	"techblog/internal/domain"
)

type episodeListItem struct {
	content.Meta
	domain.EngagementTotals
}

func (h *Handler) listEpisodes(w http.ResponseWriter, r *http.Request) {
	metas, err := h.index.Episodes(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	slugs := make([]string, len(metas))
	for i, meta := range metas {
		slugs[i] = meta.Slug
	}

	totals, err := h.engagement.Totals(r.Context(), slugs)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	items := make([]episodeListItem, len(metas))
	for i, meta := range metas {
		items[i] = episodeListItem{Meta: meta, EngagementTotals: totals[meta.Slug]}
	}

	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) getEpisode(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	episode, err := h.index.EpisodeBySlug(r.Context(), slug)
	if errors.Is(err, domain.ErrEpisodeNotFound) {
		h.writeError(w, http.StatusNotFound, "episode not found")
		return
	}
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	// read path: never mint a session for a plain page fetch
	ident := h.identity.Resolve(w, r, false)
	info, err := h.engagement.Engagement(r.Context(), ident, slug, episode.Title)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, struct {
		*content.Episode
		Engagement domain.EngagementInfo `json:"engagement"`
	}{episode, info})
}

// titleRequest is the optional body on view/like writes carrying the display
// title to denormalize onto the episode row.
type titleRequest struct {
	Title string `json:"title"`
}

func (h *Handler) recordView(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var body titleRequest
	if err := decodeOptional(r, &body); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ident := h.identity.Resolve(w, r, true)
	info, err := h.engagement.RecordView(r.Context(), ident, slug, body.Title)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var body titleRequest
	if err := decodeOptional(r, &body); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ident := h.identity.Resolve(w, r, true)
	result, err := h.engagement.ToggleLike(r.Context(), ident, slug, body.Title)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	comments, err := h.comments.List(r.Context(), slug)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if comments == nil {
		comments = []domain.CommentView{}
	}

	h.writeJSON(w, http.StatusOK, comments)
}

type createCommentRequest struct {
	Content  string `json:"content"`
	ParentID *int64 `json:"parentId"`
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var body createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	ident := h.identity.Resolve(w, r, true)
	comment, err := h.comments.Create(r.Context(), ident, slug, body.Content, body.ParentID)
	if err != nil {
		h.commentError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, domain.CommentView{
		ID:        comment.ID,
		Content:   comment.Content,
		ParentID:  comment.ParentID,
		CreatedAt: comment.CreatedAt,
	})
}

func (h *Handler) commentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrCommentTooShort), errors.Is(err, domain.ErrCommentTooLong):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		h.serverError(w, r, err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	h.writeError(w, http.StatusInternalServerError, "internal error")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("write response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// decodeOptional tolerates an empty body; view/like writes do not require one.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
