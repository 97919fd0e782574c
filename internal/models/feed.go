package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Feed entry kinds.
const (
	FeedKindItem = "item"
	FeedKindFind = "find"
)

// Feed tags shown on cards.
const (
	FeedTagCollection = "Collection"
	FeedTagWildFind   = "Wild Find"
	FeedTagAdAnalysis = "Ad Analysis"
)

// FeedEntry is the normalized projection of an AudioItem or WildFind. It is
// derived per request and never persisted.
type FeedEntry struct {
	ID         string      `json:"id"`
	SourceID   uint        `json:"sourceId"`
	Kind       string      `json:"kind"`
	Title      string      `json:"title"`
	ImageURL   string      `json:"imageUrl"`
	Tag        string      `json:"tag"`
	DetailPath string      `json:"detailPath"`
	CreatedAt  time.Time   `json:"createdAt"`
	User       UserSummary `json:"user"`
}

// FeedEntryFromItem maps an AudioItem into the feed shape.
func FeedEntryFromItem(item *AudioItem) FeedEntry {
	return FeedEntry{
		ID:         fmt.Sprintf("item-%d", item.ID),
		SourceID:   item.ID,
		Kind:       FeedKindItem,
		Title:      joinTitle(item.Make, item.Model),
		ImageURL:   item.CoverImage(),
		Tag:        FeedTagCollection,
		DetailPath: fmt.Sprintf("/items/%d", item.ID),
		CreatedAt:  item.CreatedAt,
		User:       item.User.Summary(),
	}
}

// FeedEntryFromWildFind maps a WildFind into the feed shape.
func FeedEntryFromWildFind(find *WildFind) FeedEntry {
	tag := FeedTagWildFind
	if find.FindType == FindTypeAd {
		tag = FeedTagAdAnalysis
	}
	return FeedEntry{
		ID:         fmt.Sprintf("find-%d", find.ID),
		SourceID:   find.ID,
		Kind:       FeedKindFind,
		Title:      WildFindTitle(find),
		ImageURL:   find.ImageURL,
		Tag:        tag,
		DetailPath: fmt.Sprintf("/wild-finds/%d", find.ID),
		CreatedAt:  find.CreatedAt,
		User:       find.User.Summary(),
	}
}

// findAnalysisHeader is the subset of the analysis payload used for titles.
type findAnalysisHeader struct {
	Title          string `json:"title"`
	Identification struct {
		Make  string `json:"make"`
		Model string `json:"model"`
	} `json:"identification"`
	Listing struct {
		Title string `json:"title"`
	} `json:"listing"`
}

// WildFindTitle derives a display title from the analysis payload. Malformed
// payloads fall back to the generic tag.
func WildFindTitle(find *WildFind) string {
	var h findAnalysisHeader
	if len(find.Analysis) > 0 {
		_ = json.Unmarshal(find.Analysis, &h)
	}
	identified := joinTitle(h.Identification.Make, h.Identification.Model)

	if find.FindType == FindTypeAd {
		switch {
		case strings.TrimSpace(h.Listing.Title) != "":
			return strings.TrimSpace(h.Listing.Title)
		case identified != "":
			return identified
		default:
			return FeedTagAdAnalysis
		}
	}

	switch {
	case identified != "":
		return identified
	case strings.TrimSpace(h.Title) != "":
		return strings.TrimSpace(h.Title)
	default:
		return FeedTagWildFind
	}
}

func joinTitle(brand, model string) string {
	return strings.TrimSpace(strings.TrimSpace(brand) + " " + strings.TrimSpace(model))
}
