package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	Name string `json:"name"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideFetchesOnceThenServesFromCache(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			dest.Name = "Marantz 2270"
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, ItemKey(7), &first, time.Minute, fetch(&first)))
	var second cachedThing
	require.NoError(t, Aside(ctx, ItemKey(7), &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Marantz 2270", second.Name)
}

func TestAsidePropagatesFetchError(t *testing.T) {
	mr := setupMiniredis(t)
	boom := errors.New("db down")

	var dest cachedThing
	err := Aside(context.Background(), UserKey(1), &dest, time.Minute, func() error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(UserKey(1)))
}

func TestAsideWithoutClientCallsFetch(t *testing.T) {
	SetClient(nil)
	var dest cachedThing
	err := Aside(context.Background(), UserKey(1), &dest, time.Minute, func() error {
		dest.Name = "direct"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", dest.Name)
}

func TestInvalidateUserRemovesEveryKey(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()
	require.NoError(t, SetJSON(ctx, UserKey(1), cachedThing{"a"}, time.Minute))
	require.NoError(t, SetJSON(ctx, UserKey(2), cachedThing{"b"}, time.Minute))

	InvalidateUser(ctx, 1, 2)

	assert.False(t, mr.Exists(UserKey(1)))
	assert.False(t, mr.Exists(UserKey(2)))
}

func TestRevokeToken(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, "abc", time.Hour))
	revoked, err = IsTokenRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = IsTokenRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)
}
