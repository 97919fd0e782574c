// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"audiovault/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("privacy", func(fl validator.FieldLevel) bool {
		return models.Privacy(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyRegex.MatchString(fl.Field().String())
	})
	return v
}

// Struct validates s against its `validate` tags and returns a
// ValidationError naming the first offending field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError("Invalid request")
	}
	return models.NewValidationError(describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "username":
		if err := ValidateUsername(fmt.Sprint(fe.Value())); err != nil {
			return err.Error()
		}
		return "username is invalid"
	case "privacy":
		return "privacy must be Public or Private"
	case "currency":
		return "currency must be a 3-letter ISO code"
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}
	if len(username) > 30 {
		return fmt.Errorf("username must not exceed 30 characters")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscores, and hyphens")
	}
	if username[0] == '_' || username[0] == '-' || username[len(username)-1] == '_' || username[len(username)-1] == '-' {
		return fmt.Errorf("username cannot start or end with underscore or hyphen")
	}
	return nil
}

// UsernameFromEmail derives a valid username candidate from the local part of email.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '+':
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if len(name) > 24 {
		name = name[:24]
	}
	for len(name) < 3 {
		name += "0"
	}
	return name
}
