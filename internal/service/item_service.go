package service

import (
	"context"
	"strings"
	"time"

	"audiovault/internal/models"
	"audiovault/internal/repository"
	"audiovault/internal/validation"
)

const itemPhotoPrefix = "items"

// ItemFields are the user-editable attributes of an AudioItem.
type ItemFields struct {
	Make              string     `json:"make" validate:"required,max=100"`
	Model             string     `json:"model" validate:"required,max=100"`
	ItemType          string     `json:"itemType" validate:"max=50"`
	Condition         string     `json:"condition" validate:"max=50"`
	IsFullyFunctional bool       `json:"isFullyFunctional"`
	Notes             string     `json:"notes" validate:"max=5000"`
	Privacy           string     `json:"privacy" validate:"omitempty,privacy"`
	IsForSale         bool       `json:"isForSale"`
	AskingPrice       *float64   `json:"askingPrice" validate:"omitempty,gte=0"`
	Currency          string     `json:"currency" validate:"omitempty,currency"`
	PurchasePrice     *float64   `json:"purchasePrice" validate:"omitempty,gte=0"`
	PurchaseDate      *time.Time `json:"purchaseDate"`
}

type CreateItemInput struct {
	UserID uint
	Fields ItemFields
	Photos []UploadImageInput
}

// UpdateItemInput carries only the fields a client may change. Nil means
// "leave as is"; ownership, photos and analysis are not editable here.
type UpdateItemInput struct {
	UserID            uint       `json:"-"`
	ItemID            uint       `json:"-"`
	Make              *string    `json:"make" validate:"omitempty,max=100"`
	Model             *string    `json:"model" validate:"omitempty,max=100"`
	ItemType          *string    `json:"itemType" validate:"omitempty,max=50"`
	Condition         *string    `json:"condition" validate:"omitempty,max=50"`
	IsFullyFunctional *bool      `json:"isFullyFunctional"`
	Notes             *string    `json:"notes" validate:"omitempty,max=5000"`
	Privacy           *string    `json:"privacy" validate:"omitempty,privacy"`
	IsForSale         *bool      `json:"isForSale"`
	AskingPrice       *float64   `json:"askingPrice" validate:"omitempty,gte=0"`
	Currency          *string    `json:"currency" validate:"omitempty,currency"`
	PurchasePrice     *float64   `json:"purchasePrice" validate:"omitempty,gte=0"`
	PurchaseDate      *time.Time `json:"purchaseDate"`
}

// ItemService implements the catalog operations and enforces ownership.
type ItemService struct {
	itemRepo repository.AudioItemRepository
	images   *ImageService
}

// NewItemService returns a new ItemService.
func NewItemService(itemRepo repository.AudioItemRepository, images *ImageService) *ItemService {
	return &ItemService{itemRepo: itemRepo, images: images}
}

// ListMine returns every item the caller owns, Private ones included.
func (s *ItemService) ListMine(ctx context.Context, userID uint, limit, offset int) ([]models.AudioItem, error) {
	return s.itemRepo.ListByOwner(ctx, userID, userID, limit, offset)
}

// Discover lists Public items across all users.
func (s *ItemService) Discover(ctx context.Context, filter repository.ItemFilter, page, pageSize int) ([]models.AudioItem, error) {
	page, pageSize = NormalizePage(page, pageSize)
	return s.itemRepo.ListPublic(ctx, filter, pageSize, (page-1)*pageSize)
}

// GetOwned loads an item the caller owns: 404 when missing, 403 otherwise.
func (s *ItemService) GetOwned(ctx context.Context, userID, itemID uint) (*models.AudioItem, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.OwnedBy(userID) {
		return nil, models.NewForbiddenError("You do not own this item")
	}
	return item, nil
}

// Create validates the fields, stores the photos and persists the item.
// Uploaded objects are removed again if the insert fails.
func (s *ItemService) Create(ctx context.Context, in CreateItemInput) (*models.AudioItem, error) {
	in.Fields.Make = strings.TrimSpace(in.Fields.Make)
	in.Fields.Model = strings.TrimSpace(in.Fields.Model)
	if err := validation.Struct(in.Fields); err != nil {
		return nil, err
	}
	if len(in.Photos) > MaxPhotosPerItem {
		return nil, models.NewValidationError("An item can have at most 6 photos")
	}

	prepared, err := s.images.PrepareAll(in.Photos)
	if err != nil {
		return nil, err
	}

	item := &models.AudioItem{UserID: in.UserID, Photos: []string{}}
	applyFields(item, in.Fields)

	if err := s.attachPhotos(ctx, item, prepared); err != nil {
		return nil, err
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		s.images.DeleteBestEffort(ctx, storedObjects(item)...)
		return nil, err
	}
	return item, nil
}

// Update applies the whitelisted fields to an owned item. Last write wins.
func (s *ItemService) Update(ctx context.Context, in UpdateItemInput) (*models.AudioItem, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if (in.Make != nil && strings.TrimSpace(*in.Make) == "") || (in.Model != nil && strings.TrimSpace(*in.Model) == "") {
		return nil, models.NewValidationError("make and model cannot be empty")
	}

	item, err := s.GetOwned(ctx, in.UserID, in.ItemID)
	if err != nil {
		return nil, err
	}

	setString(&item.Make, in.Make)
	setString(&item.Model, in.Model)
	setString(&item.ItemType, in.ItemType)
	setString(&item.Condition, in.Condition)
	setString(&item.Notes, in.Notes)
	setString(&item.Currency, in.Currency)
	if in.IsFullyFunctional != nil {
		item.IsFullyFunctional = *in.IsFullyFunctional
	}
	if in.Privacy != nil {
		item.Privacy = models.Privacy(*in.Privacy)
	}
	if in.IsForSale != nil {
		item.IsForSale = *in.IsForSale
	}
	if in.AskingPrice != nil {
		item.AskingPrice = in.AskingPrice
	}
	if in.PurchasePrice != nil {
		item.PurchasePrice = in.PurchasePrice
	}
	if in.PurchaseDate != nil {
		item.PurchaseDate = in.PurchaseDate
	}
	if item.IsForSale && item.Currency == "" {
		item.Currency = "USD"
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an owned item and then its stored photos, best-effort.
func (s *ItemService) Delete(ctx context.Context, userID, itemID uint) error {
	item, err := s.GetOwned(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return err
	}
	s.images.DeleteOwnedBestEffort(ctx, itemPhotoPrefix, item.UserID, storedObjects(item)...)
	return nil
}

// AddPhotos appends photos to an owned item, keeping the total at or below
// MaxPhotosPerItem.
func (s *ItemService) AddPhotos(ctx context.Context, userID, itemID uint, photos []UploadImageInput) (*models.AudioItem, error) {
	if len(photos) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	item, err := s.GetOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if len(item.Photos)+len(photos) > MaxPhotosPerItem {
		return nil, models.NewValidationError("An item can have at most 6 photos")
	}

	prepared, err := s.images.PrepareAll(photos)
	if err != nil {
		return nil, err
	}

	before := storedObjects(item)
	if err := s.attachPhotos(ctx, item, prepared); err != nil {
		return nil, err
	}
	if err := s.itemRepo.Update(ctx, item); err != nil {
		s.images.DeleteBestEffort(ctx, newObjects(before, storedObjects(item))...)
		return nil, err
	}
	return item, nil
}

// attachPhotos stores prepared images and appends their URLs to item. The
// first photo of an item without a thumbnail also gets one. On failure,
// everything stored by this call is removed.
func (s *ItemService) attachPhotos(ctx context.Context, item *models.AudioItem, prepared []*PreparedImage) error {
	var stored []string
	for _, img := range prepared {
		withThumb := item.ThumbnailURL == ""
		photo, err := s.images.Store(ctx, itemPhotoPrefix, item.UserID, img, withThumb)
		if err != nil {
			s.images.DeleteBestEffort(ctx, stored...)
			return err
		}
		stored = append(stored, photo.URL)
		item.Photos = append(item.Photos, photo.URL)
		if photo.ThumbnailURL != "" {
			stored = append(stored, photo.ThumbnailURL)
			item.ThumbnailURL = photo.ThumbnailURL
		}
	}
	return nil
}

func applyFields(item *models.AudioItem, f ItemFields) {
	item.Make = f.Make
	item.Model = f.Model
	item.ItemType = f.ItemType
	item.Condition = f.Condition
	item.IsFullyFunctional = f.IsFullyFunctional
	item.Notes = f.Notes
	item.Privacy = models.Privacy(f.Privacy)
	item.IsForSale = f.IsForSale
	item.AskingPrice = f.AskingPrice
	item.Currency = f.Currency
	item.PurchasePrice = f.PurchasePrice
	item.PurchaseDate = f.PurchaseDate
	if item.Privacy == "" {
		item.Privacy = models.PrivacyPublic
	}
	if item.IsForSale && item.Currency == "" {
		item.Currency = "USD"
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func storedObjects(item *models.AudioItem) []string {
	out := append([]string{}, item.Photos...)
	if item.ThumbnailURL != "" {
		out = append(out, item.ThumbnailURL)
	}
	return out
}

func newObjects(before, after []string) []string {
	seen := make(map[string]struct{}, len(before))
	for _, u := range before {
		seen[u] = struct{}{}
	}
	var out []string
	for _, u := range after {
		if _, ok := seen[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}
