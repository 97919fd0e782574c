package service

import (
	"context"
	"errors"
	"testing"

	"audiovault/internal/models"
	"audiovault/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateProfileFn func(context.Context, *models.User) error
	existsFn        func(context.Context, uint) (bool, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateProfileFn(ctx, user)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(context.Context, string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:        func(context.Context, *models.User) error { return nil },
		updateProfileFn: func(context.Context, *models.User) error { return nil },
		existsFn:        func(context.Context, uint) (bool, error) { return true, nil },
	}
}

type followRepoStub struct {
	followFn        func(context.Context, uint, uint) error
	unfollowFn      func(context.Context, uint, uint) error
	isFollowingFn   func(context.Context, uint, uint) (bool, error)
	followingIDsFn  func(context.Context, uint) ([]uint, error)
	followerIDsFn   func(context.Context, uint) ([]uint, error)
	listFollowingFn func(context.Context, uint, int, int) ([]models.User, error)
	listFollowersFn func(context.Context, uint, int, int) ([]models.User, error)
}

func (s *followRepoStub) Follow(ctx context.Context, a, b uint) error   { return s.followFn(ctx, a, b) }
func (s *followRepoStub) Unfollow(ctx context.Context, a, b uint) error { return s.unfollowFn(ctx, a, b) }
func (s *followRepoStub) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	return s.isFollowingFn(ctx, a, b)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, id uint) ([]uint, error) {
	return s.followingIDsFn(ctx, id)
}
func (s *followRepoStub) FollowerIDs(ctx context.Context, id uint) ([]uint, error) {
	return s.followerIDsFn(ctx, id)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, id uint, limit, offset int) ([]models.User, error) {
	return s.listFollowingFn(ctx, id, limit, offset)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, id uint, limit, offset int) ([]models.User, error) {
	return s.listFollowersFn(ctx, id, limit, offset)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:        func(context.Context, uint, uint) error { return nil },
		unfollowFn:      func(context.Context, uint, uint) error { return nil },
		isFollowingFn:   func(context.Context, uint, uint) (bool, error) { return false, nil },
		followingIDsFn:  func(context.Context, uint) ([]uint, error) { return []uint{}, nil },
		followerIDsFn:   func(context.Context, uint) ([]uint, error) { return []uint{}, nil },
		listFollowingFn: func(context.Context, uint, int, int) ([]models.User, error) { return nil, nil },
		listFollowersFn: func(context.Context, uint, int, int) ([]models.User, error) { return nil, nil },
	}
}

type itemRepoStub struct {
	createFn             func(context.Context, *models.AudioItem) error
	getByIDFn            func(context.Context, uint) (*models.AudioItem, error)
	updateFn             func(context.Context, *models.AudioItem) error
	deleteFn             func(context.Context, uint) error
	setAnalysisFn        func(context.Context, uint, datatypes.JSON) error
	listByOwnerFn        func(context.Context, uint, uint, int, int) ([]models.AudioItem, error)
	countByOwnerFn       func(context.Context, uint, uint) (int64, error)
	listPublicFn         func(context.Context, repository.ItemFilter, int, int) ([]models.AudioItem, error)
	listPublicByOwnersFn func(context.Context, []uint) ([]models.AudioItem, error)
}

func (s *itemRepoStub) Create(ctx context.Context, item *models.AudioItem) error {
	return s.createFn(ctx, item)
}
func (s *itemRepoStub) GetByID(ctx context.Context, id uint) (*models.AudioItem, error) {
	return s.getByIDFn(ctx, id)
}
func (s *itemRepoStub) Update(ctx context.Context, item *models.AudioItem) error {
	return s.updateFn(ctx, item)
}
func (s *itemRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *itemRepoStub) SetAnalysis(ctx context.Context, id uint, a datatypes.JSON) error {
	return s.setAnalysisFn(ctx, id, a)
}
func (s *itemRepoStub) ListByOwner(ctx context.Context, owner, viewer uint, limit, offset int) ([]models.AudioItem, error) {
	return s.listByOwnerFn(ctx, owner, viewer, limit, offset)
}
func (s *itemRepoStub) CountByOwner(ctx context.Context, owner, viewer uint) (int64, error) {
	return s.countByOwnerFn(ctx, owner, viewer)
}
func (s *itemRepoStub) ListPublic(ctx context.Context, f repository.ItemFilter, limit, offset int) ([]models.AudioItem, error) {
	return s.listPublicFn(ctx, f, limit, offset)
}
func (s *itemRepoStub) ListPublicByOwners(ctx context.Context, ids []uint) ([]models.AudioItem, error) {
	return s.listPublicByOwnersFn(ctx, ids)
}

func noopItemRepo() *itemRepoStub {
	return &itemRepoStub{
		createFn:             func(context.Context, *models.AudioItem) error { return nil },
		getByIDFn:            func(_ context.Context, id uint) (*models.AudioItem, error) { return nil, models.NewNotFoundError("AudioItem", id) },
		updateFn:             func(context.Context, *models.AudioItem) error { return nil },
		deleteFn:             func(context.Context, uint) error { return nil },
		setAnalysisFn:        func(context.Context, uint, datatypes.JSON) error { return nil },
		listByOwnerFn:        func(context.Context, uint, uint, int, int) ([]models.AudioItem, error) { return []models.AudioItem{}, nil },
		countByOwnerFn:       func(context.Context, uint, uint) (int64, error) { return 0, nil },
		listPublicFn:         func(context.Context, repository.ItemFilter, int, int) ([]models.AudioItem, error) { return []models.AudioItem{}, nil },
		listPublicByOwnersFn: func(context.Context, []uint) ([]models.AudioItem, error) { return []models.AudioItem{}, nil },
	}
}

type findRepoStub struct {
	createFn       func(context.Context, *models.WildFind) error
	getByIDFn      func(context.Context, uint) (*models.WildFind, error)
	deleteFn       func(context.Context, uint) error
	listByOwnerFn  func(context.Context, uint, int, int) ([]models.WildFind, error)
	listByOwnersFn func(context.Context, []uint) ([]models.WildFind, error)
}

func (s *findRepoStub) Create(ctx context.Context, f *models.WildFind) error { return s.createFn(ctx, f) }
func (s *findRepoStub) GetByID(ctx context.Context, id uint) (*models.WildFind, error) {
	return s.getByIDFn(ctx, id)
}
func (s *findRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *findRepoStub) ListByOwner(ctx context.Context, id uint, limit, offset int) ([]models.WildFind, error) {
	return s.listByOwnerFn(ctx, id, limit, offset)
}
func (s *findRepoStub) ListByOwners(ctx context.Context, ids []uint) ([]models.WildFind, error) {
	return s.listByOwnersFn(ctx, ids)
}

func noopFindRepo() *findRepoStub {
	return &findRepoStub{
		createFn:       func(context.Context, *models.WildFind) error { return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.WildFind, error) { return nil, models.NewNotFoundError("WildFind", id) },
		deleteFn:       func(context.Context, uint) error { return nil },
		listByOwnerFn:  func(context.Context, uint, int, int) ([]models.WildFind, error) { return []models.WildFind{}, nil },
		listByOwnersFn: func(context.Context, []uint) ([]models.WildFind, error) { return []models.WildFind{}, nil },
	}
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
