package server

import (
	"encoding/json"
	"strings"

	"audiovault/internal/models"
	"audiovault/internal/repository"
	"audiovault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// parseItemBody decodes the item fields from a JSON body or, for multipart
// requests, from the JSON in the "data" form field.
func parseItemBody(c *fiber.Ctx, dest any) error {
	if isMultipart(c) {
		raw := strings.TrimSpace(c.FormValue("data"))
		if raw == "" {
			raw = "{}"
		}
		if err := json.Unmarshal([]byte(raw), dest); err != nil {
			return models.NewValidationError("Invalid item data")
		}
		return nil
	}
	if err := c.BodyParser(dest); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// ListMyItems handles GET /api/items
// @Summary List my items
// @Description Every item the caller owns, Private ones included
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.AudioItem
// @Router /items [get]
func (s *Server) ListMyItems(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPaginationLimit)
	items, err := s.itemService.ListMine(c.UserContext(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(items)
}

// DiscoverItems handles GET /api/items/discover
// @Summary Discover public items
// @Tags items
// @Produce json
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Param type query string false "Item type"
// @Param forSale query bool false "Only items for sale"
// @Success 200 {array} models.AudioItem
// @Router /items/discover [get]
func (s *Server) DiscoverItems(c *fiber.Ctx) error {
	page, size := parsePage(c)
	filter := repository.ItemFilter{
		ItemType: strings.TrimSpace(c.Query("type")),
		ForSale:  c.QueryBool("forSale", false),
	}
	items, err := s.itemService.Discover(c.UserContext(), filter, page, size)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(items)
}

// CreateItem handles POST /api/items
// @Summary Create item
// @Description JSON body, or multipart with a "data" JSON field and up to 6 "photos"
// @Tags items
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body service.ItemFields true "Item"
// @Success 201 {object} models.AudioItem
// @Failure 400 {object} models.ErrorResponse
// @Router /items [post]
func (s *Server) CreateItem(c *fiber.Ctx) error {
	var fields service.ItemFields
	if err := parseItemBody(c, &fields); err != nil {
		return models.Respond(c, err)
	}
	photos, err := readUploads(c, "photos")
	if err != nil {
		return models.Respond(c, err)
	}

	item, err := s.itemService.Create(c.UserContext(), service.CreateItemInput{
		UserID: currentUserID(c),
		Fields: fields,
		Photos: photos,
	})
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GetItem handles GET /api/items/:id
// @Summary Get owned item
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Success 200 {object} models.AudioItem
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /items/{id} [get]
func (s *Server) GetItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	item, err := s.itemService.GetOwned(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(item)
}

// UpdateItem handles PUT /api/items/:id
// @Summary Update owned item
// @Description Only the whitelisted fields are applied
// @Tags items
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Param request body service.UpdateItemInput true "Fields to change"
// @Success 200 {object} models.AudioItem
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /items/{id} [put]
func (s *Server) UpdateItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateItemInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.UserID = currentUserID(c)
	req.ItemID = id

	item, err := s.itemService.Update(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(item)
}

// DeleteItem handles DELETE /api/items/:id
// @Summary Delete owned item
// @Tags items
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /items/{id} [delete]
func (s *Server) DeleteItem(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.itemService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddItemPhotos handles POST /api/items/:id/photos
// @Summary Append photos
// @Tags items
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Item ID"
// @Param photos formData file true "Photos"
// @Success 200 {object} models.AudioItem
// @Router /items/{id}/photos [post]
func (s *Server) AddItemPhotos(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	photos, err := readUploads(c, "photos")
	if err != nil {
		return models.Respond(c, err)
	}
	item, err := s.itemService.AddPhotos(c.UserContext(), currentUserID(c), id, photos)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(item)
}
