package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techblog/internal/content"
	"techblog/internal/domain"
	"techblog/internal/identity"
)

type stubEngagement struct {
	recordView func(domain.Identity, string, string) (domain.EngagementInfo, error)
	toggleLike func(domain.Identity, string, string) (domain.ToggleResult, error)
	engagement func(domain.Identity, string, string) (domain.EngagementInfo, error)
	totals     func([]string) (map[string]domain.EngagementTotals, error)
}

func (s *stubEngagement) RecordView(_ context.Context, ident domain.Identity, slug, title string) (domain.EngagementInfo, error) {
	return s.recordView(ident, slug, title)
}

func (s *stubEngagement) ToggleLike(_ context.Context, ident domain.Identity, slug, title string) (domain.ToggleResult, error) {
	return s.toggleLike(ident, slug, title)
}

func (s *stubEngagement) Engagement(_ context.Context, ident domain.Identity, slug, title string) (domain.EngagementInfo, error) {
	return s.engagement(ident, slug, title)
}

func (s *stubEngagement) Totals(_ context.Context, slugs []string) (map[string]domain.EngagementTotals, error) {
	return s.totals(slugs)
}

type stubComments struct {
	create func(domain.Identity, string, string, *int64) (*domain.Comment, error)
	list   func(string) ([]domain.CommentView, error)
}

func (s *stubComments) Create(_ context.Context, ident domain.Identity, slug, content string, parentID *int64) (*domain.Comment, error) {
	return s.create(ident, slug, content, parentID)
}

func (s *stubComments) List(_ context.Context, slug string) ([]domain.CommentView, error) {
	return s.list(slug)
}

type stubIndex struct {
	episodes      func() ([]content.Meta, error)
	episodeBySlug func(string) (*content.Episode, error)
}

func (s *stubIndex) Episodes(context.Context) ([]content.Meta, error) {
	return s.episodes()
}

func (s *stubIndex) EpisodeBySlug(_ context.Context, slug string) (*content.Episode, error) {
	return s.episodeBySlug(slug)
}

func newTestHandler(eng *stubEngagement, com *stubComments, idx *stubIndex) *Handler {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewHandler(eng, com, idx, identity.NewResolver(), logger)
}

func TestRecordView_MintsSessionCookie(t *testing.T) {
	eng := &stubEngagement{
		recordView: func(ident domain.Identity, slug, title string) (domain.EngagementInfo, error) {
			assert.NotEmpty(t, ident.SessionID, "write path must create a session")
			assert.Equal(t, "foo", slug)
			assert.Equal(t, "Foo", title)
			return domain.EngagementInfo{Views: 1}, nil
		},
	}
	h := newTestHandler(eng, &stubComments{}, &stubIndex{})

	req := httptest.NewRequest(http.MethodPost, "/episodes/foo/view", strings.NewReader(`{"title":"Foo"}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var info domain.EngagementInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 1, info.Views)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, identity.SessionCookie, cookies[0].Name)
}

func TestRecordView_EmptyBodyAllowed(t *testing.T) {
	eng := &stubEngagement{
		recordView: func(ident domain.Identity, slug, title string) (domain.EngagementInfo, error) {
			assert.Empty(t, title)
			return domain.EngagementInfo{}, nil
		},
	}
	h := newTestHandler(eng, &stubComments{}, &stubIndex{})

	req := httptest.NewRequest(http.MethodPost, "/episodes/foo/view", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetEpisode_NotFound(t *testing.T) {
	idx := &stubIndex{
		episodeBySlug: func(slug string) (*content.Episode, error) {
			return nil, domain.ErrEpisodeNotFound
		},
	}
	h := newTestHandler(&stubEngagement{}, &stubComments{}, idx)

	req := httptest.NewRequest(http.MethodGet, "/episodes/missing", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetEpisode_ReadPathDoesNotCreateSession(t *testing.T) {
	idx := &stubIndex{
		episodeBySlug: func(slug string) (*content.Episode, error) {
			return &content.Episode{
				Meta: content.Meta{Slug: slug, Title: "Foo", Date: "2025-01-01", ReadingMinutes: 1},
				HTML: "<p>body</p>",
			}, nil
		},
	}
	eng := &stubEngagement{
		engagement: func(ident domain.Identity, slug, title string) (domain.EngagementInfo, error) {
			assert.Empty(t, ident.SessionID)
			return domain.EngagementInfo{Views: 4, Likes: 1}, nil
		},
	}
	h := newTestHandler(eng, &stubComments{}, idx)

	req := httptest.NewRequest(http.MethodGet, "/episodes/foo", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	var payload struct {
		Slug       string                `json:"slug"`
		HTML       string                `json:"html"`
		Engagement domain.EngagementInfo `json:"engagement"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "foo", payload.Slug)
	assert.Equal(t, "<p>body</p>", payload.HTML)
	assert.Equal(t, 4, payload.Engagement.Views)
}

func TestListEpisodes_MergesTotals(t *testing.T) {
	idx := &stubIndex{
		episodes: func() ([]content.Meta, error) {
			return []content.Meta{
				{Slug: "foo", Title: "Foo", Date: "2025-02-01"},
				{Slug: "bar", Title: "Bar", Date: "2025-01-01"},
			}, nil
		},
	}
	eng := &stubEngagement{
		totals: func(slugs []string) (map[string]domain.EngagementTotals, error) {
			assert.Equal(t, []string{"foo", "bar"}, slugs)
			return map[string]domain.EngagementTotals{
				"foo": {Views: 10, Likes: 3},
				"bar": {},
			}, nil
		},
	}
	h := newTestHandler(eng, &stubComments{}, idx)

	req := httptest.NewRequest(http.MethodGet, "/episodes", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var items []struct {
		Slug  string `json:"slug"`
		Views int    `json:"views"`
		Likes int    `json:"likes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, 10, items[0].Views)
	assert.Equal(t, 0, items[1].Views)
}

func TestCreateComment_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"too short", domain.ErrCommentTooShort, http.StatusUnprocessableEntity},
		{"too long", domain.ErrCommentTooLong, http.StatusUnprocessableEntity},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests},
		{"no session", domain.ErrNoSession, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			com := &stubComments{
				create: func(domain.Identity, string, string, *int64) (*domain.Comment, error) {
					return nil, tt.err
				},
			}
			h := newTestHandler(&stubEngagement{}, com, &stubIndex{})

			req := httptest.NewRequest(http.MethodPost, "/episodes/foo/comments", strings.NewReader(`{"content":"hi"}`))
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCreateComment_Success(t *testing.T) {
	parentID := int64(3)
	com := &stubComments{
		create: func(ident domain.Identity, slug, content string, pid *int64) (*domain.Comment, error) {
			assert.Equal(t, "foo", slug)
			assert.Equal(t, "hello world", content)
			require.NotNil(t, pid)
			assert.Equal(t, parentID, *pid)
			return &domain.Comment{ID: 9, Slug: slug, Content: content, ParentID: pid}, nil
		},
	}
	h := newTestHandler(&stubEngagement{}, com, &stubIndex{})

	req := httptest.NewRequest(http.MethodPost, "/episodes/foo/comments",
		strings.NewReader(`{"content":"hello world","parentId":3}`))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var view domain.CommentView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, int64(9), view.ID)
	assert.Equal(t, "hello world", view.Content)
}

func TestListComments_EmptyIsArray(t *testing.T) {
	com := &stubComments{
		list: func(string) ([]domain.CommentView, error) {
			return nil, nil
		},
	}
	h := newTestHandler(&stubEngagement{}, com, &stubIndex{})

	req := httptest.NewRequest(http.MethodGet, "/episodes/foo/comments", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(&stubEngagement{}, &stubComments{}, &stubIndex{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
