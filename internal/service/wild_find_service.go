package service

import (
	"context"
	"encoding/json"
	"strings"

	"audiovault/internal/models"
	"audiovault/internal/repository"
	"audiovault/internal/validation"

	"gorm.io/datatypes"
)

const findPhotoPrefix = "finds"

// CreateWildFindInput saves an analysis the caller already has. ImageURL is
// used as-is unless Image carries a new upload; inside the object store it
// must point at one of the caller's own photos.
type CreateWildFindInput struct {
	UserID      uint              `json:"-"`
	FindType    string            `json:"findType" validate:"required,oneof=wild_find ad_analysis"`
	ImageURL    string            `json:"imageUrl" validate:"omitempty,url,max=2048"`
	ListingURL  string            `json:"listingUrl" validate:"omitempty,url,max=2048"`
	AskingPrice *float64          `json:"askingPrice" validate:"omitempty,gte=0"`
	Notes       string            `json:"notes" validate:"max=2000"`
	Analysis    json.RawMessage   `json:"analysis"`
	Image       *UploadImageInput `json:"-"`
}

// WildFindService stores and serves saved analyses.
type WildFindService struct {
	findRepo repository.WildFindRepository
	images   *ImageService
}

// NewWildFindService returns a new WildFindService.
func NewWildFindService(findRepo repository.WildFindRepository, images *ImageService) *WildFindService {
	return &WildFindService{findRepo: findRepo, images: images}
}

// Create persists a find. The analysis must be a JSON object.
func (s *WildFindService) Create(ctx context.Context, in CreateWildFindInput) (*models.WildFind, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !isJSONObject(in.Analysis) {
		return nil, models.NewValidationError("analysis must be a JSON object")
	}
	if in.Image == nil && in.ImageURL != "" && s.images.InStore(in.ImageURL) &&
		!s.images.Owns(in.ImageURL, findPhotoPrefix, in.UserID) &&
		!s.images.Owns(in.ImageURL, itemPhotoPrefix, in.UserID) {
		return nil, models.NewForbiddenError("imageUrl refers to a photo you do not own")
	}

	find := &models.WildFind{
		UserID:      in.UserID,
		FindType:    models.FindType(in.FindType),
		ImageURL:    in.ImageURL,
		ListingURL:  in.ListingURL,
		AskingPrice: in.AskingPrice,
		Notes:       in.Notes,
		Analysis:    datatypes.JSON(in.Analysis),
	}

	if in.Image != nil {
		prepared, err := s.images.Prepare(*in.Image)
		if err != nil {
			return nil, err
		}
		if err := s.attachImage(ctx, find, prepared); err != nil {
			return nil, err
		}
	}

	if err := s.findRepo.Create(ctx, find); err != nil {
		if in.Image != nil {
			s.images.DeleteBestEffort(ctx, find.ImageURL)
		}
		return nil, err
	}
	return find, nil
}

func (s *WildFindService) attachImage(ctx context.Context, find *models.WildFind, img *PreparedImage) error {
	photo, err := s.images.Store(ctx, findPhotoPrefix, find.UserID, img, false)
	if err != nil {
		return err
	}
	find.ImageURL = photo.URL
	return nil
}

// List returns the caller's finds, newest first.
func (s *WildFindService) List(ctx context.Context, userID uint, limit, offset int) ([]models.WildFind, error) {
	return s.findRepo.ListByOwner(ctx, userID, limit, offset)
}

// GetOwned loads a find the caller owns: 404 when missing, 403 otherwise.
func (s *WildFindService) GetOwned(ctx context.Context, userID, findID uint) (*models.WildFind, error) {
	find, err := s.findRepo.GetByID(ctx, findID)
	if err != nil {
		return nil, err
	}
	if !find.OwnedBy(userID) {
		return nil, models.NewForbiddenError("You do not own this find")
	}
	return find, nil
}

// Delete removes an owned find and, best-effort, its stored image.
func (s *WildFindService) Delete(ctx context.Context, userID, findID uint) error {
	find, err := s.GetOwned(ctx, userID, findID)
	if err != nil {
		return err
	}
	if err := s.findRepo.Delete(ctx, findID); err != nil {
		return err
	}
	s.images.DeleteOwnedBestEffort(ctx, findPhotoPrefix, find.UserID, find.ImageURL)
	return nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var obj map[string]any
	return json.Unmarshal(raw, &obj) == nil
}
