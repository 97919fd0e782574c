package server

import (
	"audiovault/internal/models"
	"audiovault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListWildFinds handles GET /api/wild-finds
// @Summary List my finds
// @Tags wild-finds
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.WildFind
// @Router /wild-finds [get]
func (s *Server) ListWildFinds(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPaginationLimit)
	finds, err := s.findService.List(c.UserContext(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(finds)
}

// CreateWildFind handles POST /api/wild-finds
// @Summary Save a find
// @Description JSON body, or multipart with a "data" JSON field and an "image"
// @Tags wild-finds
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateWildFindInput true "Find"
// @Success 201 {object} models.WildFind
// @Failure 400 {object} models.ErrorResponse
// @Router /wild-finds [post]
func (s *Server) CreateWildFind(c *fiber.Ctx) error {
	var req service.CreateWildFindInput
	if err := parseItemBody(c, &req); err != nil {
		return models.Respond(c, err)
	}
	image, err := readUpload(c, "image")
	if err != nil {
		return models.Respond(c, err)
	}
	req.UserID = currentUserID(c)
	req.Image = image

	find, err := s.findService.Create(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(find)
}

// GetWildFind handles GET /api/wild-finds/:id
// @Summary Get owned find
// @Tags wild-finds
// @Produce json
// @Security BearerAuth
// @Param id path int true "Find ID"
// @Success 200 {object} models.WildFind
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /wild-finds/{id} [get]
func (s *Server) GetWildFind(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	find, err := s.findService.GetOwned(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(find)
}

// DeleteWildFind handles DELETE /api/wild-finds/:id
// @Summary Delete owned find
// @Tags wild-finds
// @Security BearerAuth
// @Param id path int true "Find ID"
// @Success 204
// @Router /wild-finds/{id} [delete]
func (s *Server) DeleteWildFind(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.findService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return models.Respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
