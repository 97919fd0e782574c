package repository

import (
	"context"

	"audiovault/internal/cache"
	"audiovault/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemFilter narrows public item listings.
type ItemFilter struct {
	ItemType string
	ForSale  bool
}

// AudioItemRepository defines persistence operations for catalog items.
type AudioItemRepository interface {
	Create(ctx context.Context, item *models.AudioItem) error
	GetByID(ctx context.Context, id uint) (*models.AudioItem, error)
	Update(ctx context.Context, item *models.AudioItem) error
	Delete(ctx context.Context, id uint) error
	SetAnalysis(ctx context.Context, id uint, analysis datatypes.JSON) error
	ListByOwner(ctx context.Context, ownerID, viewerID uint, limit, offset int) ([]models.AudioItem, error)
	CountByOwner(ctx context.Context, ownerID, viewerID uint) (int64, error)
	ListPublic(ctx context.Context, filter ItemFilter, limit, offset int) ([]models.AudioItem, error)
	ListPublicByOwners(ctx context.Context, ownerIDs []uint) ([]models.AudioItem, error)
}

type audioItemRepository struct {
	db *gorm.DB
}

// NewAudioItemRepository returns a new AudioItemRepository implementation.
func NewAudioItemRepository(db *gorm.DB) AudioItemRepository {
	return &audioItemRepository{db: db}
}

func (r *audioItemRepository) Create(ctx context.Context, item *models.AudioItem) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID loads the item with its owner. Visibility is the caller's decision.
func (r *audioItemRepository) GetByID(ctx context.Context, id uint) (*models.AudioItem, error) {
	var item models.AudioItem
	err := cache.Aside(ctx, cache.ItemKey(id), &item, cache.ItemTTL, func() error {
		if err := r.db.WithContext(ctx).Preload("User").First(&item, id).Error; err != nil {
			return notFoundOr(err, "AudioItem", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *audioItemRepository) Update(ctx context.Context, item *models.AudioItem) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateItem(ctx, item.ID)
	return nil
}

func (r *audioItemRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.AudioItem{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	cache.InvalidateItem(ctx, id)
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("AudioItem", id)
	}
	return nil
}

func (r *audioItemRepository) SetAnalysis(ctx context.Context, id uint, analysis datatypes.JSON) error {
	res := r.db.WithContext(ctx).Model(&models.AudioItem{}).Where("id = ?", id).
		Update("latest_analysis", analysis)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	cache.InvalidateItem(ctx, id)
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("AudioItem", id)
	}
	return nil
}

// ListByOwner returns ownerID's items newest first, hiding Private ones
// unless viewerID is the owner.
func (r *audioItemRepository) ListByOwner(ctx context.Context, ownerID, viewerID uint, limit, offset int) ([]models.AudioItem, error) {
	items := []models.AudioItem{}
	err := r.db.WithContext(ctx).
		Where("audio_items.user_id = ?", ownerID).
		Scopes(ItemsVisibleTo(viewerID), Paginate(limit, offset)).
		Order("audio_items.created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *audioItemRepository) CountByOwner(ctx context.Context, ownerID, viewerID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.AudioItem{}).
		Where("audio_items.user_id = ?", ownerID).
		Scopes(ItemsVisibleTo(viewerID)).
		Count(&n).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

// ListPublic powers discover: Public items across all users, newest first.
func (r *audioItemRepository) ListPublic(ctx context.Context, filter ItemFilter, limit, offset int) ([]models.AudioItem, error) {
	items := []models.AudioItem{}
	q := r.db.WithContext(ctx).Preload("User").Scopes(PublicItems)
	if filter.ItemType != "" {
		q = q.Where("audio_items.item_type = ?", filter.ItemType)
	}
	if filter.ForSale {
		q = q.Where("audio_items.is_for_sale = ?", true)
	}
	if err := q.Order("audio_items.created_at DESC").Scopes(Paginate(limit, offset)).Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

// ListPublicByOwners returns every Public item owned by any of ownerIDs, unpaginated.
func (r *audioItemRepository) ListPublicByOwners(ctx context.Context, ownerIDs []uint) ([]models.AudioItem, error) {
	items := []models.AudioItem{}
	if len(ownerIDs) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Preload("User").
		Scopes(PublicItems).
		Where("audio_items.user_id IN ?", ownerIDs).
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}
