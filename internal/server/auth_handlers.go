package server

import (
	"fmt"
	"strconv"
	"time"

	"audiovault/internal/cache"
	"audiovault/internal/models"
	"audiovault/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account; the username is derived from the email when omitted
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req)
	if err != nil {
		return models.Respond(c, err)
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return models.Respond(c, models.NewInternalError(err))
	}
	return c.JSON(AuthResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(*accessClaims)
	if ok {
		if err := cache.RevokeToken(c.UserContext(), claims.JTI, time.Until(claims.ExpiresAt)); err != nil {
			return models.Respond(c, models.NewInternalError(err))
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// generateToken signs an HS256 token for userID with a unique JTI.
func (s *Server) generateToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWTExpiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
