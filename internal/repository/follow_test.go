package repository

import (
	"context"
	"errors"
	"testing"

	"audiovault/internal/models"
	"audiovault/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, id).Error)
	return u
}

func TestFollowRepository_Integration(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	t.Run("Follow writes one edge and both counters", func(t *testing.T) {
		require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

		following, err := repo.FollowingIDs(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{bob.ID}, following)

		followers, err := repo.FollowerIDs(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{alice.ID}, followers)

		assert.Equal(t, 1, reloadUser(t, db, alice.ID).FollowingCount)
		assert.Equal(t, 1, reloadUser(t, db, bob.ID).FollowersCount)
	})

	t.Run("Follow is idempotent", func(t *testing.T) {
		require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

		var edges int64
		db.Model(&models.Follow{}).Count(&edges)
		assert.Equal(t, int64(1), edges)
		assert.Equal(t, 1, reloadUser(t, db, alice.ID).FollowingCount)
		assert.Equal(t, 1, reloadUser(t, db, bob.ID).FollowersCount)
	})

	t.Run("ListFollowers and ListFollowing", func(t *testing.T) {
		followers, err := repo.ListFollowers(ctx, bob.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, followers, 1)
		assert.Equal(t, "alice", followers[0].Username)

		following, err := repo.ListFollowing(ctx, alice.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, following, 1)
		assert.Equal(t, "bob", following[0].Username)

		ok, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.IsFollowing(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Unfollow removes edge and counters", func(t *testing.T) {
		require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))

		following, err := repo.FollowingIDs(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, following)
		followers, err := repo.FollowerIDs(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, followers)

		assert.Equal(t, 0, reloadUser(t, db, alice.ID).FollowingCount)
		assert.Equal(t, 0, reloadUser(t, db, bob.ID).FollowersCount)
	})

	t.Run("Unfollow when not following is a no-op", func(t *testing.T) {
		require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
		assert.Equal(t, 0, reloadUser(t, db, alice.ID).FollowingCount)
	})

	t.Run("Follow missing user writes nothing", func(t *testing.T) {
		err := repo.Follow(ctx, alice.ID, 9999)

		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeNotFound, appErr.Code)

		var edges int64
		db.Model(&models.Follow{}).Count(&edges)
		assert.Zero(t, edges)
		assert.Equal(t, 0, reloadUser(t, db, alice.ID).FollowingCount)
	})
}

func TestFollowRepository_RollsBackWhenCounterUpdateFails(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	// Fail the second counter update so the edge and the first counter must roll back.
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("fail_followers_count", func(tx *gorm.DB) {
		if cols, ok := tx.Statement.Dest.(map[string]interface{}); ok {
			if _, hit := cols["followers_count"]; hit {
				_ = tx.AddError(errors.New("injected failure"))
			}
		}
	}))

	err := repo.Follow(ctx, alice.ID, bob.ID)
	require.Error(t, err)

	var edges int64
	db.Model(&models.Follow{}).Count(&edges)
	assert.Zero(t, edges)
	assert.Equal(t, 0, reloadUser(t, db, alice.ID).FollowingCount)
	assert.Equal(t, 0, reloadUser(t, db, bob.ID).FollowersCount)
}
