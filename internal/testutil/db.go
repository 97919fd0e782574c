// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"audiovault/internal/database"
	"audiovault/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory sqlite database private to t.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a new database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user whose password is "secret123".
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Username:           username,
		Email:              fmt.Sprintf("%s@example.com", username),
		Password:           string(hash),
		IsCollectionPublic: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateItem inserts an AudioItem owned by owner with the given privacy and creation time.
func CreateItem(t testing.TB, db *gorm.DB, owner *models.User, privacy models.Privacy, createdAt time.Time) *models.AudioItem {
	t.Helper()
	item := &models.AudioItem{
		UserID:    owner.ID,
		Make:      "Pioneer",
		Model:     fmt.Sprintf("SX-%d", createdAt.Unix()%10000),
		ItemType:  "Receiver",
		Condition: "Good",
		Privacy:   privacy,
		Photos:    []string{},
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

// CreateFind inserts a WildFind owned by owner.
func CreateFind(t testing.TB, db *gorm.DB, owner *models.User, findType models.FindType, createdAt time.Time) *models.WildFind {
	t.Helper()
	find := &models.WildFind{
		UserID:    owner.ID,
		FindType:  findType,
		ImageURL:  "https://cdn.example.com/finds/1.jpg",
		Analysis:  datatypes.JSON(`{"identification":{"make":"Marantz","model":"2270"}}`),
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(find).Error)
	return find
}
