package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	ItemKeyPrefix      = "item:%d"
	RevokedTokenPrefix = "jwt:revoked:%s"
)

const (
	UserTTL = 5 * time.Minute
	ItemTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ItemKey(itemID uint) string {
	return fmt.Sprintf(ItemKeyPrefix, itemID)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenPrefix, jti)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, UserKey(id))
	}
	Invalidate(ctx, keys...)
}

func InvalidateItem(ctx context.Context, itemID uint) {
	Invalidate(ctx, ItemKey(itemID))
}

// RevokeToken blacklists jti until ttl elapses, which should match the
// token's remaining lifetime.
func RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return client.Set(ctx, RevokedTokenKey(jti), "1", ttl).Err()
}

// IsTokenRevoked reports whether jti was revoked. Without Redis nothing is revoked.
func IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
