package validation

import (
	"errors"
	"strings"
	"testing"

	"audiovault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "tape_head42", false},
		{"Too Short", "ab", true},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Illegal Chars", "user@123", true},
		{"Starts Dash", "-user", true},
		{"Ends Underscore", "user_", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUsernameFromEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		email string
		want  string
	}{
		{"a@example.com", "a00"},
		{"Jane.Doe+hifi@example.com", "jane_doe_hifi"},
		{"_x_@example.com", "x00"},
	}
	for _, tt := range tests {
		got := UsernameFromEmail(tt.email)
		assert.Equal(t, tt.want, got)
		assert.NoError(t, ValidateUsername(got))
	}
}

type sampleRequest struct {
	Email    string  `validate:"required,email"`
	Password string  `validate:"required,min=6"`
	Privacy  string  `validate:"omitempty,privacy"`
	Currency string  `validate:"omitempty,currency"`
	Price    float64 `validate:"gte=0"`
}

func TestStruct(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		req     sampleRequest
		wantMsg string
	}{
		{"valid", sampleRequest{Email: "a@b.co", Password: "secret123", Privacy: "Private", Currency: "USD"}, ""},
		{"missing email", sampleRequest{Password: "secret123"}, "email is required"},
		{"bad email", sampleRequest{Email: "nope", Password: "secret123"}, "invalid email format"},
		{"short password", sampleRequest{Email: "a@b.co", Password: "123"}, "password must be at least 6 characters long"},
		{"bad privacy", sampleRequest{Email: "a@b.co", Password: "secret123", Privacy: "Friends"}, "privacy must be Public or Private"},
		{"bad currency", sampleRequest{Email: "a@b.co", Password: "secret123", Currency: "usd"}, "currency must be a 3-letter ISO code"},
		{"negative price", sampleRequest{Email: "a@b.co", Password: "secret123", Price: -1}, "price must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}
