package service

import (
	"context"
	"testing"

	"audiovault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowServiceRejectsSelf(t *testing.T) {
	follows := noopFollowRepo()
	follows.followFn = func(context.Context, uint, uint) error {
		t.Fatal("repository must not be called")
		return nil
	}
	follows.unfollowFn = follows.followFn
	svc := NewFollowService(follows, noopUserRepo())

	assertAppError(t, svc.Follow(context.Background(), 3, 3), models.CodeInvalidOperation)
	assertAppError(t, svc.Unfollow(context.Background(), 3, 3), models.CodeInvalidOperation)
}

func TestFollowServiceDelegatesToRepository(t *testing.T) {
	var got [2]uint
	follows := noopFollowRepo()
	follows.followFn = func(_ context.Context, a, b uint) error {
		got = [2]uint{a, b}
		return nil
	}
	svc := NewFollowService(follows, noopUserRepo())

	require.NoError(t, svc.Follow(context.Background(), 1, 2))
	assert.Equal(t, [2]uint{1, 2}, got)
}

func TestFollowServiceListsRequireUser(t *testing.T) {
	users := noopUserRepo()
	users.existsFn = func(context.Context, uint) (bool, error) { return false, nil }
	svc := NewFollowService(noopFollowRepo(), users)

	_, err := svc.Followers(context.Background(), 9, 20, 0)
	assertAppError(t, err, models.CodeNotFound)
	_, err = svc.Following(context.Background(), 9, 20, 0)
	assertAppError(t, err, models.CodeNotFound)
}

func TestFollowServiceListsSummaries(t *testing.T) {
	follows := noopFollowRepo()
	follows.listFollowersFn = func(context.Context, uint, int, int) ([]models.User, error) {
		return []models.User{{ID: 4, Username: "tubes", Email: "hidden@example.com"}}, nil
	}
	svc := NewFollowService(follows, noopUserRepo())

	got, err := svc.Followers(context.Background(), 1, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{{ID: 4, Username: "tubes"}}, got)

	following, err := svc.Following(context.Background(), 1, 20, 0)
	require.NoError(t, err)
	assert.NotNil(t, following)
	assert.Empty(t, following)
}
