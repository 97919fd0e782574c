// Command main fills a development database with fake collectors, items and finds.
package main

import (
	"context"
	"flag"
	"log"

	"audiovault/internal/config"
	"audiovault/internal/database"
	"audiovault/internal/seed"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	users := flag.Int("users", seed.DefaultOptions.Users, "Number of users to create")
	items := flag.Int("items", seed.DefaultOptions.ItemsPerUser, "Items per user")
	finds := flag.Int("finds", seed.DefaultOptions.FindsPerUser, "Wild finds per user")
	follows := flag.Int("follows", seed.DefaultOptions.FollowsPerUser, "Users each user follows")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Hash passwords with minimum bcrypt cost")
	sqlitePath := flag.String("sqlite", "", "Seed this sqlite file instead of PostgreSQL")
	flag.Parse()

	db, err := open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Run(context.Background(), db, seed.Options{
		Users:          *users,
		ItemsPerUser:   *items,
		FindsPerUser:   *finds,
		FollowsPerUser: *follows,
		SkipBcrypt:     *fast,
		Clean:          *clean,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d items, %d finds, %d follows", len(res.Users), res.Items, res.Finds, res.Follows)
	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}

func open(sqlitePath string) (*gorm.DB, error) {
	if sqlitePath != "" {
		db, err := gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		return db, database.Migrate(db)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return database.Connect(cfg)
}
