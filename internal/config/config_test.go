package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:            "5000",
		JWTSecret:       "a-very-long-secret-value-for-testing-purposes",
		JWTExpiry:       time.Hour,
		UploadMaxSizeMB: 10,
		Env:             "development",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid development config"},
		{name: "missing port", mutate: func(c *Config) { c.Port = "" }, wantErr: "PORT is required"},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "zero expiry", mutate: func(c *Config) { c.JWTExpiry = 0 }, wantErr: "JWT_EXPIRY"},
		{name: "zero upload size", mutate: func(c *Config) { c.UploadMaxSizeMB = 0 }, wantErr: "UPLOAD_MAX_SIZE_MB"},
		{
			name: "production default secret",
			mutate: func(c *Config) {
				c.Env = "production"
				c.JWTSecret = defaultJWTSecret
			},
			wantErr: "must be changed",
		},
		{
			name: "production weak db password",
			mutate: func(c *Config) {
				c.Env = "production"
				c.DBPassword = "password"
			},
			wantErr: "DB_PASSWORD",
		},
		{
			name: "production without gemini key",
			mutate: func(c *Config) {
				c.Env = "production"
				c.DBPassword = "s3cure-and-long"
			},
			wantErr: "GEMINI_API_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "test-secret-that-is-long-enough-1234567890")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, 168*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 14*time.Minute, cfg.SelfPingInterval)
	assert.Equal(t, 10, cfg.UploadMaxSizeMB)
	assert.Equal(t, "audio-vault", cfg.StorageBucket)
}
