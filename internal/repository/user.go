package repository

import (
	"context"
	"errors"
	"strings"

	"audiovault/internal/cache"
	"audiovault/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, user *models.User) error
	Exists(ctx context.Context, id uint) (bool, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID reads through the user cache. The cached copy never carries the
// password hash, so callers that need it must use GetByEmail.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername returns nil, nil when the username is free.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// UpdateProfile writes the user-editable columns only. Counters and the
// password hash are never touched here.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Model(&models.User{ID: user.ID}).
		Select("username", "bio", "is_collection_public").
		Updates(map[string]any{
			"username":             user.Username,
			"bio":                  user.Bio,
			"is_collection_public": user.IsCollectionPublic,
		}).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username is already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}
