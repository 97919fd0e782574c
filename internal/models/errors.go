package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidOperation = "INVALID_OPERATION"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeUpstream         = "UPSTREAM_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewInvalidOperationError reports a well-formed request that makes no sense,
// such as following yourself.
func NewInvalidOperationError(message string) *AppError {
	return &AppError{Code: CodeInvalidOperation, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewUpstreamError wraps a failure of an external dependency such as the AI provider.
func NewUpstreamError(message string, err error) *AppError {
	return &AppError{Code: CodeUpstream, Message: message, Err: err}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusForError maps an error to its HTTP status. Anything that is not an
// AppError is a 500.
func StatusForError(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation, CodeInvalidOperation:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeConflict:
		return fiber.StatusConflict
	case CodeUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response. Causes of upstream
// and internal errors stay in the logs.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return c.Status(status).JSON(ErrorResponse{Error: "Internal server error", Code: CodeInternal})
	}

	response := ErrorResponse{Error: appErr.Message, Code: appErr.Code}
	if appErr.Err != nil && appErr.Code != CodeUpstream && appErr.Code != CodeInternal {
		response.Details = appErr.Err.Error()
	}
	return c.Status(status).JSON(response)
}

// Respond renders err with the status StatusForError picks.
func Respond(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusForError(err), err)
}
