package models

import (
	"time"

	"gorm.io/datatypes"
)

// FindType distinguishes photo scans from listing analyses.
type FindType string

const (
	// FindTypeWild is an analysis of equipment photographed in the wild.
	FindTypeWild FindType = "wild_find"
	// FindTypeAd is an analysis of a third-party sale listing.
	FindTypeAd FindType = "ad_analysis"
)

// Valid reports whether t is a known find type.
func (t FindType) Valid() bool {
	return t == FindTypeWild || t == FindTypeAd
}

// WildFind is a saved AI analysis. The payload is schema-light and stored as JSON.
type WildFind struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index" json:"userId"`
	User        *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	FindType    FindType       `gorm:"type:varchar(20);not null;index" json:"findType"`
	ImageURL    string         `json:"imageUrl"`
	ListingURL  string         `json:"listingUrl,omitempty"`
	AskingPrice *float64       `json:"askingPrice,omitempty"`
	Notes       string         `gorm:"type:text" json:"notes,omitempty"`
	Analysis    datatypes.JSON `gorm:"not null" json:"analysis"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
