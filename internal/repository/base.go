// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"audiovault/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PublicItems restricts an audio_items query to Public rows. Every read that
// serves items to someone other than their owner goes through it.
func PublicItems(db *gorm.DB) *gorm.DB {
	return db.Where("audio_items.privacy = ?", models.PrivacyPublic)
}

// ItemsVisibleTo restricts an audio_items query to rows viewerID may read.
func ItemsVisibleTo(viewerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == 0 {
			return PublicItems(db)
		}
		return db.Where("audio_items.privacy = ? OR audio_items.user_id = ?", models.PrivacyPublic, viewerID)
	}
}

// Paginate applies limit/offset when limit is positive.
func Paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		if offset < 0 {
			offset = 0
		}
		return db.Limit(limit).Offset(offset)
	}
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

func notFoundOr(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
