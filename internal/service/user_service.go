// Package service holds the business logic between HTTP handlers and repositories.
package service

import (
	"context"
	"fmt"
	"strings"

	"audiovault/internal/models"
	"audiovault/internal/repository"
	"audiovault/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const profileItemLimit = 50

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	itemRepo   repository.AudioItemRepository
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Username string `json:"username" validate:"omitempty,username"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileInput struct {
	UserID             uint    `json:"-"`
	Username           *string `json:"username" validate:"omitempty,username"`
	Bio                *string `json:"bio" validate:"omitempty,max=500"`
	IsCollectionPublic *bool   `json:"isCollectionPublic"`
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, itemRepo repository.AudioItemRepository) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo, itemRepo: itemRepo}
}

// Register creates an account with a public collection. When no username is
// given one is derived from the email address.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already exists")
	}

	username := in.Username
	if username == "" {
		if username, err = s.freeUsername(ctx, validation.UsernameFromEmail(in.Email)); err != nil {
			return nil, err
		}
	} else if taken, err := s.userRepo.GetByUsername(ctx, username); err != nil {
		return nil, err
	} else if taken != nil {
		return nil, models.NewConflictError("Username is already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:           username,
		Email:              in.Email,
		Password:           string(hashed),
		IsCollectionPublic: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) freeUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i < 100; i++ {
		taken, err := s.userRepo.GetByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if taken == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", models.NewConflictError("Could not derive a free username, please choose one")
}

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, in LoginInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetMe returns the caller's own record with both edge lists filled in.
func (s *UserService) GetMe(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Following, err = s.followRepo.FollowingIDs(ctx, userID); err != nil {
		return nil, err
	}
	if user.Followers, err = s.followRepo.FollowerIDs(ctx, userID); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies only the fields present in the input.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil && *in.Username != user.Username {
		taken, err := s.userRepo.GetByUsername(ctx, *in.Username)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, models.NewConflictError("Username is already taken")
		}
		user.Username = *in.Username
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.IsCollectionPublic != nil {
		user.IsCollectionPublic = *in.IsCollectionPublic
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetProfile builds the public profile of targetID as seen by viewerID
// (zero for anonymous viewers).
func (s *UserService) GetProfile(ctx context.Context, targetID, viewerID uint) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		User:           user.Summary(),
		Bio:            user.Bio,
		FollowersCount: user.FollowersCount,
		FollowingCount: user.FollowingCount,
		CollectionOpen: user.IsCollectionPublic,
		Items:          []models.AudioItem{},
	}

	if viewerID != 0 && viewerID != targetID {
		if profile.IsFollowing, err = s.followRepo.IsFollowing(ctx, viewerID, targetID); err != nil {
			return nil, err
		}
	}

	if !models.CollectionVisibleTo(user, viewerID) {
		return profile, nil
	}

	count, err := s.itemRepo.CountByOwner(ctx, targetID, viewerID)
	if err != nil {
		return nil, err
	}
	profile.ItemCount = int(count)

	if profile.Items, err = s.itemRepo.ListByOwner(ctx, targetID, viewerID, profileItemLimit, 0); err != nil {
		return nil, err
	}
	return profile, nil
}
