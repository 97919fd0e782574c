// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a collector account.
type User struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	Username           string `gorm:"uniqueIndex;not null;size:30" json:"username"`
	Email              string `gorm:"uniqueIndex;not null" json:"email"`
	Password           string `gorm:"not null" json:"-"`
	Bio                string `gorm:"type:text" json:"bio"`
	IsCollectionPublic bool   `gorm:"not null" json:"isCollectionPublic"`
	// Denormalized edge counts, mutated in the same transaction as the follows row.
	FollowersCount int `gorm:"not null;default:0" json:"followersCount"`
	FollowingCount int `gorm:"not null;default:0" json:"followingCount"`
	// Following and Followers are populated for the "me" profile only.
	Following []uint         `gorm:"-" json:"following,omitempty"`
	Followers []uint         `gorm:"-" json:"followers,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserSummary is the public projection of a user embedded in lists and feeds.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Summary returns the public projection of u.
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: u.ID, Username: u.Username}
}

// UserProfile is the public profile view returned by GET /api/users/profile/:id.
type UserProfile struct {
	User           UserSummary `json:"user"`
	Bio            string      `json:"bio"`
	FollowersCount int         `json:"followersCount"`
	FollowingCount int         `json:"followingCount"`
	ItemCount      int         `json:"itemCount"`
	IsFollowing    bool        `json:"isFollowing"`
	CollectionOpen bool        `json:"isCollectionPublic"`
	Items          []AudioItem `json:"items"`
}
