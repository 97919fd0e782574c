package service

import (
	"context"
	"encoding/json"
	"math"

	"audiovault/internal/ai"
	"audiovault/internal/models"
	"audiovault/internal/repository"
	"audiovault/internal/validation"

	"gorm.io/datatypes"
)

// Analyzer is the AI gateway as seen by the service layer.
type Analyzer interface {
	Identify(ctx context.Context, img ai.Image) ([]models.Candidate, error)
	AnalyzeItem(ctx context.Context, item *models.AudioItem, images []ai.Image) (*models.ItemAnalysis, error)
	AnalyzeWildFind(ctx context.Context, img ai.Image, notes string) (json.RawMessage, error)
	AnalyzeListing(ctx context.Context, listingText string, img *ai.Image, askingPrice *float64) (json.RawMessage, error)
}

// ScanInput is a wild-find or ad analysis request. Save persists the result
// as a WildFind owned by UserID.
type ScanInput struct {
	UserID      uint
	Image       *UploadImageInput
	Notes       string   `validate:"max=2000"`
	ListingText string
	ListingURL  string   `validate:"omitempty,url,max=2048"`
	AskingPrice *float64 `validate:"omitempty,gte=0"`
	Save        bool
}

// ScanResult is the raw analysis plus the saved find, when requested.
type ScanResult struct {
	Analysis json.RawMessage  `json:"analysis"`
	Find     *models.WildFind `json:"find,omitempty"`
}

// AnalysisService runs AI analyses and stores their results.
type AnalysisService struct {
	analyzer Analyzer
	images   *ImageService
	items    *ItemService
	itemRepo repository.AudioItemRepository
	findRepo repository.WildFindRepository
}

// NewAnalysisService returns a new AnalysisService.
func NewAnalysisService(analyzer Analyzer, images *ImageService, items *ItemService, itemRepo repository.AudioItemRepository, findRepo repository.WildFindRepository) *AnalysisService {
	return &AnalysisService{analyzer: analyzer, images: images, items: items, itemRepo: itemRepo, findRepo: findRepo}
}

// Identify proposes make/model candidates for a photo.
func (s *AnalysisService) Identify(ctx context.Context, upload UploadImageInput) ([]models.Candidate, error) {
	img, err := s.images.Prepare(upload)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Identify(ctx, toAIImage(img))
}

// AnalyzeItem appraises an owned item and stores the result as its latest
// analysis. Photos are optional extra context.
func (s *AnalysisService) AnalyzeItem(ctx context.Context, userID, itemID uint, photos []UploadImageInput) (*models.ItemAnalysis, error) {
	item, err := s.items.GetOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if len(photos) > MaxPhotosPerItem {
		return nil, models.NewValidationError("At most 6 photos can be analyzed")
	}
	prepared, err := s.images.PrepareAll(photos)
	if err != nil {
		return nil, err
	}
	images := make([]ai.Image, 0, len(prepared))
	for _, p := range prepared {
		images = append(images, toAIImage(p))
	}

	analysis, err := s.analyzer.AnalyzeItem(ctx, item, images)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(analysis)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.itemRepo.SetAnalysis(ctx, item.ID, datatypes.JSON(raw)); err != nil {
		return nil, err
	}
	return analysis, nil
}

// ScanWildFind analyzes a photo of equipment found in the wild.
func (s *AnalysisService) ScanWildFind(ctx context.Context, in ScanInput) (*ScanResult, error) {
	if in.Image == nil {
		return nil, models.NewValidationError("image is required")
	}
	if err := validateScan(in); err != nil {
		return nil, err
	}
	img, err := s.images.Prepare(*in.Image)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.AnalyzeWildFind(ctx, toAIImage(img), in.Notes)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, in, models.FindTypeWild, img, analysis)
}

// AnalyzeAd evaluates a sale listing from its text and/or a screenshot.
func (s *AnalysisService) AnalyzeAd(ctx context.Context, in ScanInput) (*ScanResult, error) {
	if in.Image == nil && in.ListingText == "" {
		return nil, models.NewValidationError("listingText or image is required")
	}
	if err := validateScan(in); err != nil {
		return nil, err
	}

	var (
		img     *PreparedImage
		aiImage *ai.Image
		err     error
	)
	if in.Image != nil {
		if img, err = s.images.Prepare(*in.Image); err != nil {
			return nil, err
		}
		converted := toAIImage(img)
		aiImage = &converted
	}

	analysis, err := s.analyzer.AnalyzeListing(ctx, in.ListingText, aiImage, in.AskingPrice)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, in, models.FindTypeAd, img, analysis)
}

func (s *AnalysisService) finish(ctx context.Context, in ScanInput, findType models.FindType, img *PreparedImage, analysis json.RawMessage) (*ScanResult, error) {
	result := &ScanResult{Analysis: analysis}
	if !in.Save {
		return result, nil
	}

	find := &models.WildFind{
		UserID:      in.UserID,
		FindType:    findType,
		ListingURL:  in.ListingURL,
		AskingPrice: in.AskingPrice,
		Notes:       in.Notes,
		Analysis:    datatypes.JSON(analysis),
	}
	if img != nil {
		photo, err := s.images.Store(ctx, findPhotoPrefix, in.UserID, img, false)
		if err != nil {
			return nil, err
		}
		find.ImageURL = photo.URL
	}
	if err := s.findRepo.Create(ctx, find); err != nil {
		s.images.DeleteBestEffort(ctx, find.ImageURL)
		return nil, err
	}
	result.Find = find
	return result, nil
}

func validateScan(in ScanInput) error {
	if p := in.AskingPrice; p != nil && (math.IsNaN(*p) || math.IsInf(*p, 0)) {
		return models.NewValidationError("askingPrice must be a finite number")
	}
	if err := validation.Struct(in); err != nil {
		return err
	}
	return nil
}

func toAIImage(p *PreparedImage) ai.Image {
	return ai.Image{MimeType: p.MimeType(), Data: p.JPEG}
}
