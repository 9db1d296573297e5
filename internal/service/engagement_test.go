package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"techblog/internal/domain"
	"techblog/internal/service/mocks"
)

type EngagementServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	episodes  *mocks.MockEpisodeStore
	views     *mocks.MockViewStore
	likes     *mocks.MockLikeStore
	txManager *mocks.MockTransactionManager

	service *EngagementService
}

func (s *EngagementServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.episodes = mocks.NewMockEpisodeStore(s.ctrl)
	s.views = mocks.NewMockViewStore(s.ctrl)
	s.likes = mocks.NewMockLikeStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.service = NewEngagementService(s.episodes, s.views, s.likes, s.txManager, logger)
}

func (s *EngagementServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestEngagementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EngagementServiceTestSuite))
}

func (s *EngagementServiceTestSuite) passThroughTx(ctx context.Context) {
	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	)
}

func (s *EngagementServiceTestSuite) TestRecordView_AnonymousIsNoOp() {
	info, err := s.service.RecordView(context.Background(), domain.Identity{}, "foo", "Foo")

	s.NoError(err)
	s.Equal(domain.EngagementInfo{}, info)
}

func (s *EngagementServiceTestSuite) TestRecordView_NewIdentity() {
	ctx := context.Background()
	ident := domain.Identity{SessionID: "sess-1", IPHash: "hash-1"}

	s.passThroughTx(ctx)
	s.episodes.EXPECT().Upsert(ctx, "foo", "Foo").Return(nil)
	s.views.EXPECT().ExistsForIPHash(ctx, "foo", "hash-1").Return(false, nil)
	s.views.EXPECT().Upsert(ctx, "foo", "sess-1", "hash-1").Return(nil)

	s.views.EXPECT().CountBySlug(ctx, "foo").Return(1, nil)
	s.likes.EXPECT().CountBySlug(ctx, "foo").Return(0, nil)
	s.likes.EXPECT().FindByIdentity(ctx, "foo", ident).Return(nil, nil)

	info, err := s.service.RecordView(ctx, ident, "foo", "Foo")

	s.NoError(err)
	s.Equal(domain.EngagementInfo{Views: 1, Likes: 0, Liked: false}, info)
}

func (s *EngagementServiceTestSuite) TestRecordView_AddressAlreadyCounted() {
	ctx := context.Background()
	ident := domain.Identity{SessionID: "fresh-session", IPHash: "shared-hash"}

	s.passThroughTx(ctx)
	s.episodes.EXPECT().Upsert(ctx, "foo", "").Return(nil)
	// another session on the same address already holds the view; no upsert
	s.views.EXPECT().ExistsForIPHash(ctx, "foo", "shared-hash").Return(true, nil)

	s.views.EXPECT().CountBySlug(ctx, "foo").Return(1, nil)
	s.likes.EXPECT().CountBySlug(ctx, "foo").Return(0, nil)
	s.likes.EXPECT().FindByIdentity(ctx, "foo", ident).Return(nil, nil)

	info, err := s.service.RecordView(ctx, ident, "foo", "")

	s.NoError(err)
	s.Equal(1, info.Views)
}

func (s *EngagementServiceTestSuite) TestRecordView_NoAddressSkipsCheck() {
	ctx := context.Background()
	ident := domain.Identity{SessionID: "sess-1"}

	s.passThroughTx(ctx)
	s.episodes.EXPECT().Upsert(ctx, "foo", "").Return(nil)
	s.views.EXPECT().Upsert(ctx, "foo", "sess-1", "").Return(nil)

	s.views.EXPECT().CountBySlug(ctx, "foo").Return(1, nil)
	s.likes.EXPECT().CountBySlug(ctx, "foo").Return(0, nil)
	s.likes.EXPECT().FindByIdentity(ctx, "foo", ident).Return(nil, nil)

	_, err := s.service.RecordView(ctx, ident, "foo", "")

	s.NoError(err)
}

func (s *EngagementServiceTestSuite) TestRecordView_TxFailure() {
	ctx := context.Background()
	ident := domain.Identity{SessionID: "sess-1"}

	s.txManager.EXPECT().WithTransaction(ctx, gomock.Any()).Return(errors.New("db down"))

	_, err := s.service.RecordView(ctx, ident, "foo", "")

	s.Error(err)
}

func (s *EngagementServiceTestSuite) TestToggleLike_Like() {
	ctx := context.Background()
	ident := domain.Identity{SessionID: "sess-1", IPHash: "hash-1"}

	s.episodes.EXPECT().Upsert(ctx, "foo", "Foo").Return(nil)
	s.likes.EXPECT().FindByIdentity(ctx, "foo", ident).Return(nil, nil)
	s.likes.EXPECT().Insert(ctx, "foo", "sess-1", "hash-1").Return(nil)
	s.likes.EXPECT().CountBySlug(ctx, "foo").Return(1, nil)

	result, err := s.service.ToggleLike(ctx, ident, "foo", "Foo")

	s.NoError(err)
	s.Equal(domain.ToggleResult{Liked: true, Likes: 1}, result)
}

func (s *EngagementServiceTestSuite) TestToggleLike_Unlike() {
	ctx := context.Background()
	ident := domain.Identity{SessionID: "sess-1", IPHash: "hash-1"}
	existing := &domain.Like{ID: 42, Slug: "foo", SessionID: "sess-1"}

	s.episodes.EXPECT().Upsert(ctx, "foo", "").Return(nil)
	s.likes.EXPECT().FindByIdentity(ctx, "foo", ident).Return(existing, nil)
	s.likes.EXPECT().Delete(ctx, int64(42)).Return(nil)
	s.likes.EXPECT().CountBySlug(ctx, "foo").Return(0, nil)

	result, err := s.service.ToggleLike(ctx, ident, "foo", "")

	s.NoError(err)
	s.Equal(domain.ToggleResult{Liked: false, Likes: 0}, result)
}

func (s *EngagementServiceTestSuite) TestToggleLike_DuplicateInsertSwallowed() {
	ctx := context.Background()
	ident := domain.Identity{SessionID: "sess-1"}

	s.episodes.EXPECT().Upsert(ctx, "foo", "").Return(nil)
	s.likes.EXPECT().FindByIdentity(ctx, "foo", ident).Return(nil, nil)
	s.likes.EXPECT().Insert(ctx, "foo", "sess-1", "").Return(domain.ErrDuplicateLike)
	s.likes.EXPECT().CountBySlug(ctx, "foo").Return(1, nil)

	result, err := s.service.ToggleLike(ctx, ident, "foo", "")

	s.NoError(err, "the concurrent writer won; not an error")
	s.True(result.Liked)
}

func (s *EngagementServiceTestSuite) TestToggleLike_AnonymousIsNoOp() {
	result, err := s.service.ToggleLike(context.Background(), domain.Identity{}, "foo", "")

	s.NoError(err)
	s.Equal(domain.ToggleResult{}, result)
}

func (s *EngagementServiceTestSuite) TestEngagement_AnonymousReadsZeroLiked() {
	ctx := context.Background()

	s.episodes.EXPECT().Upsert(ctx, "foo", "Foo").Return(nil)
	s.views.EXPECT().CountBySlug(ctx, "foo").Return(3, nil)
	s.likes.EXPECT().CountBySlug(ctx, "foo").Return(2, nil)
	// no FindByIdentity: the caller has neither session nor address hash

	info, err := s.service.Engagement(ctx, domain.Identity{}, "foo", "Foo")

	s.NoError(err)
	s.Equal(domain.EngagementInfo{Views: 3, Likes: 2, Liked: false}, info)
}

func (s *EngagementServiceTestSuite) TestEngagement_AddressOnlyIdentityMatchesLike() {
	ctx := context.Background()
	ident := domain.Identity{IPHash: "hash-1"}

	s.episodes.EXPECT().Upsert(ctx, "foo", "").Return(nil)
	s.views.EXPECT().CountBySlug(ctx, "foo").Return(3, nil)
	s.likes.EXPECT().CountBySlug(ctx, "foo").Return(2, nil)
	s.likes.EXPECT().FindByIdentity(ctx, "foo", ident).Return(&domain.Like{ID: 7}, nil)

	info, err := s.service.Engagement(ctx, ident, "foo", "")

	s.NoError(err)
	s.True(info.Liked)
}

func (s *EngagementServiceTestSuite) TestTotals() {
	ctx := context.Background()
	slugs := []string{"foo", "bar", "baz"}

	s.views.EXPECT().CountBySlugs(ctx, slugs).Return(map[string]int{"foo": 5, "bar": 1}, nil)
	s.likes.EXPECT().CountBySlugs(ctx, slugs).Return(map[string]int{"foo": 2}, nil)

	totals, err := s.service.Totals(ctx, slugs)

	s.NoError(err)
	s.Equal(map[string]domain.EngagementTotals{
		"foo": {Views: 5, Likes: 2},
		"bar": {Views: 1},
		"baz": {},
	}, totals)
}

func (s *EngagementServiceTestSuite) TestTotals_Empty() {
	totals, err := s.service.Totals(context.Background(), nil)

	s.NoError(err)
	s.Empty(totals)
}
