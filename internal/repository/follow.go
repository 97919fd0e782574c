package repository

import (
	"context"
	"errors"
	"fmt"

	"audiovault/internal/cache"
	"audiovault/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository persists the follow graph. A single follows row backs both
// the follower's "following" list and the target's "followers" list.
type FollowRepository interface {
	Follow(ctx context.Context, followerID, targetID uint) error
	Unfollow(ctx context.Context, followerID, targetID uint) error
	IsFollowing(ctx context.Context, followerID, targetID uint) (bool, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	FollowerIDs(ctx context.Context, userID uint) ([]uint, error)
	ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

var errCounterDrift = errors.New("follow counter update affected no rows")

// Follow inserts the edge and bumps both counters in one transaction. Both
// users must exist; following twice is a no-op.
func (r *followRepository) Follow(ctx context.Context, followerID, targetID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("id IN ?", []uint{followerID, targetID}).Count(&n).Error; err != nil {
			return err
		}
		if n != 2 {
			return models.NewNotFoundError("User", targetID)
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FollowingID: targetID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := bumpCounter(tx, followerID, "following_count", 1); err != nil {
			return err
		}
		return bumpCounter(tx, targetID, "followers_count", 1)
	})
	if err != nil {
		return wrapTxError(err)
	}
	cache.InvalidateUser(ctx, followerID, targetID)
	return nil
}

// Unfollow removes the edge and decrements both counters when it existed.
func (r *followRepository) Unfollow(ctx context.Context, followerID, targetID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, targetID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := bumpCounter(tx, followerID, "following_count", -1); err != nil {
			return err
		}
		return bumpCounter(tx, targetID, "followers_count", -1)
	})
	if err != nil {
		return wrapTxError(err)
	}
	cache.InvalidateUser(ctx, followerID, targetID)
	return nil
}

func bumpCounter(tx *gorm.DB, userID uint, column string, delta int) error {
	q := tx.Model(&models.User{}).Where("id = ?", userID)
	if delta < 0 {
		q = q.Where(column+" > 0")
	}
	res := q.UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%w: user %d column %s", errCounterDrift, userID, column)
	}
	return nil
}

func wrapTxError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return models.NewInternalError(err)
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, targetID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, targetID).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.listUsers(ctx, "follows.following_id = users.id", "follows.follower_id = ?", userID, limit, offset)
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.listUsers(ctx, "follows.follower_id = users.id", "follows.following_id = ?", userID, limit, offset)
}

func (r *followRepository) listUsers(ctx context.Context, join, where string, userID uint, limit, offset int) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON "+join).
		Where(where, userID).
		Order("follows.created_at DESC").
		Scopes(Paginate(limit, offset)).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
