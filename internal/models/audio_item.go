package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Privacy controls who can see an AudioItem.
type Privacy string

const (
	// PrivacyPublic items are listed on profiles, discover and feeds.
	PrivacyPublic Privacy = "Public"
	// PrivacyPrivate items are visible to their owner only.
	PrivacyPrivate Privacy = "Private"
)

// Valid reports whether p is a known privacy value.
func (p Privacy) Valid() bool {
	return p == PrivacyPublic || p == PrivacyPrivate
}

// AudioItem is a catalog entry owned by exactly one user.
type AudioItem struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"not null;index" json:"userId"`
	User              *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Make              string     `gorm:"not null;size:100" json:"make"`
	Model             string     `gorm:"not null;size:100" json:"model"`
	ItemType          string     `gorm:"size:50;index" json:"itemType"`
	Condition         string     `gorm:"size:50" json:"condition"`
	IsFullyFunctional bool       `json:"isFullyFunctional"`
	Notes             string     `gorm:"type:text" json:"notes"`
	Photos            []string   `gorm:"type:text;serializer:json" json:"photos"`
	ThumbnailURL      string     `json:"thumbnailUrl,omitempty"`
	Privacy           Privacy    `gorm:"type:varchar(10);not null;default:'Public';index" json:"privacy"`
	IsForSale         bool       `json:"isForSale"`
	AskingPrice       *float64   `json:"askingPrice,omitempty"`
	Currency          string     `gorm:"size:3" json:"currency,omitempty"`
	PurchasePrice     *float64   `json:"purchasePrice,omitempty"`
	PurchaseDate      *time.Time `json:"purchaseDate,omitempty"`
	// LatestAnalysis holds the most recent ItemAnalysis as stored JSON.
	LatestAnalysis datatypes.JSON `json:"latestAnalysis,omitempty"`
	CreatedAt      time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// BeforeCreate defaults an unset privacy to Public.
func (i *AudioItem) BeforeCreate(_ *gorm.DB) error {
	if i.Privacy == "" {
		i.Privacy = PrivacyPublic
	}
	return nil
}

// CoverImage returns the best image to show in lists.
func (i *AudioItem) CoverImage() string {
	if i.ThumbnailURL != "" {
		return i.ThumbnailURL
	}
	if len(i.Photos) > 0 {
		return i.Photos[0]
	}
	return ""
}

// ValueRange is an estimated market value band.
type ValueRange struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Currency string  `json:"currency"`
}

// ItemAnalysis is the AI condition and valuation report for an item.
type ItemAnalysis struct {
	Summary        string     `json:"summary"`
	EstimatedValue ValueRange `json:"estimatedValue"`
	Confidence     float64    `json:"confidence"`
	Issues         []string   `json:"issues"`
	Tips           []string   `json:"tips"`
	AnalyzedAt     time.Time  `json:"analyzedAt"`
}

// Candidate is one possible identification of a photographed device.
type Candidate struct {
	Make       string  `json:"make"`
	Model      string  `json:"model"`
	ItemType   string  `json:"itemType"`
	Confidence float64 `json:"confidence"`
	Notes      string  `json:"notes,omitempty"`
}
