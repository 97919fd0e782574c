package server

import (
	"audiovault/internal/models"
	"audiovault/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Current user
// @Description The caller's record including following and followers IDs
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetMe(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update current user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} models.User
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.UserID = currentUserID(c)

	user, err := s.userService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/profile/:id
// @Summary Public profile
// @Description Counts and the items visible to the (optional) caller
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/profile/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	profile, err := s.userService.GetProfile(c.UserContext(), id, viewerID)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(profile)
}

// GetFeed handles GET /api/users/feed
// @Summary Social feed
// @Description Followed users' public items and finds, newest first
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {array} models.FeedEntry
// @Router /users/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page, size := parsePage(c)
	entries, err := s.feedService.GetFeed(c.UserContext(), currentUserID(c), page, size)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(entries)
}

// FollowUser handles POST /api/users/:id/follow
// @Summary Follow user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{following=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.Follow(c.UserContext(), currentUserID(c), targetID); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"following": true})
}

// UnfollowUser handles POST /api/users/:id/unfollow
// @Summary Unfollow user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{following=bool}
// @Router /users/{id}/unfollow [post]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.followService.Unfollow(c.UserContext(), currentUserID(c), targetID); err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}

// GetFollowers handles GET /api/users/:id/followers
// @Summary Followers
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Router /users/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPaginationLimit)
	users, err := s.followService.Followers(c.UserContext(), id, p.Limit, p.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:id/following
// @Summary Following
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Router /users/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPaginationLimit)
	users, err := s.followService.Following(c.UserContext(), id, p.Limit, p.Offset)
	if err != nil {
		return models.Respond(c, err)
	}
	return c.JSON(users)
}
