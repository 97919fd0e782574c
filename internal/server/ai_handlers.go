package server

import (
	"strings"

	"audiovault/internal/models"
	"audiovault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// IdentifyEquipment handles POST /api/ai/identify
// @Summary Identify equipment from a photo
// @Tags ai
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Photo"
// @Success 200 {object} object{candidates=[]models.Candidate}
// @Failure 502 {object} models.ErrorResponse
// @Router /ai/identify [post]
func (s *Server) IdentifyEquipment(c *fiber.Ctx) error {
	image, err := readUpload(c, "image")
	if err != nil {
		return models.Respond(c, err)
	}
	if image == nil {
		return models.Respond(c, models.NewValidationError("No file uploaded"))
	}

	candidates, err := s.analysisService.Identify(c.UserContext(), *image)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"candidates": candidates})
}

// AnalyzeItem handles POST /api/ai/items/:id/analyze
// @Summary Appraise an owned item
// @Description Stores the result as the item's latestAnalysis. Photos are optional.
// @Tags ai
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Param photos formData file false "Photos"
// @Success 200 {object} models.ItemAnalysis
// @Failure 403 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /ai/items/{id}/analyze [post]
func (s *Server) AnalyzeItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	photos, err := readUploads(c, "photos")
	if err != nil {
		return models.Respond(c, err)
	}

	analysis, err := s.analysisService.AnalyzeItem(c.UserContext(), currentUserID(c), id, photos)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(analysis)
}

// ScanWildFind handles POST /api/ai/wild-find
// @Summary Analyze equipment found in the wild
// @Tags ai
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Photo"
// @Param notes formData string false "Notes"
// @Param save formData bool false "Save as a WildFind"
// @Success 200 {object} service.ScanResult
// @Failure 502 {object} models.ErrorResponse
// @Router /ai/wild-find [post]
func (s *Server) ScanWildFind(c *fiber.Ctx) error {
	image, err := readUpload(c, "image")
	if err != nil {
		return models.Respond(c, err)
	}

	result, err := s.analysisService.ScanWildFind(c.UserContext(), service.ScanInput{
		UserID: currentUserID(c),
		Image:  image,
		Notes:  strings.TrimSpace(c.FormValue("notes")),
		Save:   formBool(c, "save"),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(result)
}

// AnalyzeAd handles POST /api/ai/ad
// @Summary Evaluate a sale listing
// @Tags ai
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file false "Listing screenshot"
// @Param listingText formData string false "Listing text"
// @Param listingUrl formData string false "Listing URL"
// @Param askingPrice formData number false "Asking price"
// @Param save formData bool false "Save as a WildFind"
// @Success 200 {object} service.ScanResult
// @Failure 502 {object} models.ErrorResponse
// @Router /ai/ad [post]
func (s *Server) AnalyzeAd(c *fiber.Ctx) error {
	image, err := readUpload(c, "image")
	if err != nil {
		return models.Respond(c, err)
	}
	price, err := formFloat(c, "askingPrice")
	if err != nil {
		return models.Respond(c, err)
	}

	result, err := s.analysisService.AnalyzeAd(c.UserContext(), service.ScanInput{
		UserID:      currentUserID(c),
		Image:       image,
		ListingText: strings.TrimSpace(c.FormValue("listingText")),
		ListingURL:  strings.TrimSpace(c.FormValue("listingUrl")),
		AskingPrice: price,
		Save:        formBool(c, "save"),
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(result)
}
