package service

import (
	"context"
	"sort"

	"audiovault/internal/models"
	"audiovault/internal/observability"
	"audiovault/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// FeedService merges followed users' public items and wild finds into one
// newest-first stream.
type FeedService struct {
	followRepo repository.FollowRepository
	itemRepo   repository.AudioItemRepository
	findRepo   repository.WildFindRepository
}

// NewFeedService returns a new FeedService.
func NewFeedService(followRepo repository.FollowRepository, itemRepo repository.AudioItemRepository, findRepo repository.WildFindRepository) *FeedService {
	return &FeedService{followRepo: followRepo, itemRepo: itemRepo, findRepo: findRepo}
}

// NormalizePage clamps page and page size to their accepted ranges.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// GetFeed returns one page of the caller's feed. Both sources are loaded in
// full and merged in memory, so any failure fails the whole page.
func (s *FeedService) GetFeed(ctx context.Context, userID uint, page, pageSize int) ([]models.FeedEntry, error) {
	page, pageSize = NormalizePage(page, pageSize)

	following, err := s.followRepo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(following) == 0 {
		observability.FeedEntriesServed.Observe(0)
		return []models.FeedEntry{}, nil
	}

	items, err := s.itemRepo.ListPublicByOwners(ctx, following)
	if err != nil {
		return nil, err
	}
	finds, err := s.findRepo.ListByOwners(ctx, following)
	if err != nil {
		return nil, err
	}

	entries := make([]models.FeedEntry, 0, len(items)+len(finds))
	for i := range items {
		// Private items of followed users never reach the feed.
		if !items[i].VisibleTo(userID) {
			continue
		}
		entries = append(entries, models.FeedEntryFromItem(&items[i]))
	}
	for i := range finds {
		entries = append(entries, models.FeedEntryFromWildFind(&finds[i]))
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	start := (page - 1) * pageSize
	if start >= len(entries) {
		observability.FeedEntriesServed.Observe(0)
		return []models.FeedEntry{}, nil
	}
	end := min(start+pageSize, len(entries))

	pageEntries := entries[start:end]
	observability.FeedEntriesServed.Observe(float64(len(pageEntries)))
	return pageEntries, nil
}
