package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"audiovault/internal/models"
	"audiovault/internal/repository"
	"audiovault/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{-3, 10, 1, 10},
		{2, 500, 2, 100},
		{4, 100, 4, 100},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.page, tt.size), func(t *testing.T) {
			p, s := NormalizePage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, p)
			assert.Equal(t, tt.wantSize, s)
		})
	}
}

func TestFeedServiceEmptyFollowingSkipsContentQueries(t *testing.T) {
	items := noopItemRepo()
	items.listPublicByOwnersFn = func(context.Context, []uint) ([]models.AudioItem, error) {
		t.Fatal("items must not be queried")
		return nil, nil
	}
	finds := noopFindRepo()
	finds.listByOwnersFn = func(context.Context, []uint) ([]models.WildFind, error) {
		t.Fatal("finds must not be queried")
		return nil, nil
	}

	svc := NewFeedService(noopFollowRepo(), items, finds)
	got, err := svc.GetFeed(context.Background(), 1, 1, 20)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFeedServiceEmptyFollowingRunsOnlyFollowsQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT .* FROM "follows"`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"following_id"}))

	svc := NewFeedService(
		repository.NewFollowRepository(db),
		repository.NewAudioItemRepository(db),
		repository.NewWildFindRepository(db),
	)
	got, err := svc.GetFeed(context.Background(), 7, 1, 20)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedServiceMergesSortsAndPaginates(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	owner := &models.User{ID: 2, Username: "hifi"}

	follows := noopFollowRepo()
	follows.followingIDsFn = func(context.Context, uint) ([]uint, error) { return []uint{2}, nil }

	items := noopItemRepo()
	items.listPublicByOwnersFn = func(_ context.Context, ids []uint) ([]models.AudioItem, error) {
		assert.Equal(t, []uint{2}, ids)
		return []models.AudioItem{
			{ID: 1, UserID: 2, User: owner, Make: "Marantz", Model: "2270", Privacy: models.PrivacyPublic, CreatedAt: base},
			{ID: 2, UserID: 2, User: owner, Make: "Sansui", Model: "AU-717", Privacy: models.PrivacyPublic, CreatedAt: base.Add(2 * time.Hour)},
		}, nil
	}
	finds := noopFindRepo()
	finds.listByOwnersFn = func(context.Context, []uint) ([]models.WildFind, error) {
		return []models.WildFind{
			{ID: 1, UserID: 2, User: owner, FindType: models.FindTypeWild, Analysis: datatypes.JSON(`{}`), CreatedAt: base.Add(time.Hour)},
		}, nil
	}

	svc := NewFeedService(follows, items, finds)

	first, err := svc.GetFeed(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "item-2", first[0].ID)
	assert.Equal(t, "find-1", first[1].ID)

	second, err := svc.GetFeed(context.Background(), 1, 2, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "item-1", second[0].ID)
	assert.Equal(t, "Marantz 2270", second[0].Title)
	assert.Equal(t, "hifi", second[0].User.Username)

	beyond, err := svc.GetFeed(context.Background(), 1, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestFeedServiceSourceFailureFailsWholeFeed(t *testing.T) {
	follows := noopFollowRepo()
	follows.followingIDsFn = func(context.Context, uint) ([]uint, error) { return []uint{2}, nil }
	finds := noopFindRepo()
	finds.listByOwnersFn = func(context.Context, []uint) ([]models.WildFind, error) {
		return nil, models.NewInternalError(errors.New("db down"))
	}

	got, err := NewFeedService(follows, noopItemRepo(), finds).GetFeed(context.Background(), 1, 1, 20)
	assert.Nil(t, got)
	assertAppError(t, err, models.CodeInternal)
}

func TestFeedService_Integration(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	me := testutil.CreateUser(t, db, "reader")
	followed := testutil.CreateUser(t, db, "followed")
	stranger := testutil.CreateUser(t, db, "stranger")

	followRepo := repository.NewFollowRepository(db)
	require.NoError(t, followRepo.Follow(ctx, me.ID, followed.ID))

	base := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 5; i++ {
		testutil.CreateItem(t, db, followed, models.PrivacyPublic, base.Add(time.Duration(i)*time.Minute))
	}
	private := testutil.CreateItem(t, db, followed, models.PrivacyPrivate, base.Add(time.Hour))
	testutil.CreateFind(t, db, followed, models.FindTypeAd, base.Add(30*time.Minute))
	testutil.CreateItem(t, db, stranger, models.PrivacyPublic, base.Add(2*time.Hour))

	svc := NewFeedService(followRepo, repository.NewAudioItemRepository(db), repository.NewWildFindRepository(db))

	page1, err := svc.GetFeed(ctx, me.ID, 1, 4)
	require.NoError(t, err)
	page2, err := svc.GetFeed(ctx, me.ID, 2, 4)
	require.NoError(t, err)

	assert.Len(t, page1, 4)
	assert.Len(t, page2, 2)

	seen := map[string]bool{}
	all := append(append([]models.FeedEntry{}, page1...), page2...)
	for i, e := range all {
		assert.False(t, seen[e.ID], "entry %s appears twice", e.ID)
		seen[e.ID] = true
		assert.Equal(t, followed.ID, e.User.ID)
		if i > 0 {
			assert.False(t, e.CreatedAt.After(all[i-1].CreatedAt), "feed must be newest first")
		}
	}
	assert.False(t, seen[fmt.Sprintf("item-%d", private.ID)])
	assert.Equal(t, "find-1", page1[0].ID)
	assert.Equal(t, models.FeedTagAdAnalysis, page1[0].Tag)
}
