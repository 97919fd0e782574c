package seed

import (
	"context"
	"fmt"

	"audiovault/internal/middleware"
	"audiovault/internal/models"
	"audiovault/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options controls how much data Run creates.
type Options struct {
	Users          int
	ItemsPerUser   int
	FindsPerUser   int
	FollowsPerUser int
	SkipBcrypt     bool
	Clean          bool
}

// DefaultOptions is a small social mesh suitable for local development.
var DefaultOptions = Options{Users: 20, ItemsPerUser: 6, FindsPerUser: 2, FollowsPerUser: 5}

// Result summarizes what Run created.
type Result struct {
	Users   []*models.User
	Items   int
	Finds   int
	Follows int
}

// Run seeds db. Follow edges go through the follow repository so the
// denormalized counters stay consistent.
func Run(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	if opts.Clean {
		if err := ClearAll(db); err != nil {
			return nil, fmt.Errorf("clear: %w", err)
		}
	}

	factory, err := NewFactory(db, opts.SkipBcrypt)
	if err != nil {
		return nil, err
	}
	follows := repository.NewFollowRepository(db)
	res := &Result{}

	for i := 0; i < opts.Users; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		res.Users = append(res.Users, user)

		for j := 0; j < opts.ItemsPerUser; j++ {
			if _, err := factory.CreateItem(user); err != nil {
				return nil, fmt.Errorf("create item: %w", err)
			}
			res.Items++
		}
		for j := 0; j < opts.FindsPerUser; j++ {
			if _, err := factory.CreateFind(user); err != nil {
				return nil, fmt.Errorf("create find: %w", err)
			}
			res.Finds++
		}
	}

	for _, user := range res.Users {
		for _, target := range pickTargets(res.Users, user, opts.FollowsPerUser) {
			if err := follows.Follow(ctx, user.ID, target.ID); err != nil {
				return nil, fmt.Errorf("follow: %w", err)
			}
			res.Follows++
		}
	}

	middleware.Logger.Info("seed complete",
		"users", len(res.Users), "items", res.Items, "finds", res.Finds, "follows", res.Follows)
	return res, nil
}

// pickTargets returns up to n distinct users other than self.
func pickTargets(users []*models.User, self *models.User, n int) []*models.User {
	candidates := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != self.ID {
			candidates = append(candidates, u)
		}
	}
	gofakeit.ShuffleAnySlice(candidates)
	if n < len(candidates) {
		candidates = candidates[:n]
	}
	return candidates
}

// ClearAll deletes every seeded row, children first.
func ClearAll(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Follow{}, &models.WildFind{}, &models.AudioItem{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.User{}).Error
	})
}
