package service

import (
	"context"

	"audiovault/internal/models"
	"audiovault/internal/repository"
)

// FollowService maintains the follow graph.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow makes userID follow targetID. Repeating it changes nothing.
func (s *FollowService) Follow(ctx context.Context, userID, targetID uint) error {
	if userID == targetID {
		return models.NewInvalidOperationError("You cannot follow yourself")
	}
	return s.followRepo.Follow(ctx, userID, targetID)
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, userID, targetID uint) error {
	if userID == targetID {
		return models.NewInvalidOperationError("You cannot unfollow yourself")
	}
	return s.followRepo.Unfollow(ctx, userID, targetID)
}

// Followers lists who follows userID.
func (s *FollowService) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.followRepo.ListFollowers(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return summarize(users), nil
}

// Following lists who userID follows.
func (s *FollowService) Following(ctx context.Context, userID uint, limit, offset int) ([]models.UserSummary, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.followRepo.ListFollowing(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return summarize(users), nil
}

func (s *FollowService) requireUser(ctx context.Context, userID uint) error {
	ok, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

func summarize(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}
