package repository

import (
	"context"

	"audiovault/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WildFindRepository defines persistence operations for saved analyses.
type WildFindRepository interface {
	Create(ctx context.Context, find *models.WildFind) error
	GetByID(ctx context.Context, id uint) (*models.WildFind, error)
	Delete(ctx context.Context, id uint) error
	ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]models.WildFind, error)
	ListByOwners(ctx context.Context, ownerIDs []uint) ([]models.WildFind, error)
}

type wildFindRepository struct {
	db *gorm.DB
}

// NewWildFindRepository returns a new WildFindRepository implementation.
func NewWildFindRepository(db *gorm.DB) WildFindRepository {
	return &wildFindRepository{db: db}
}

func (r *wildFindRepository) Create(ctx context.Context, find *models.WildFind) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(find).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *wildFindRepository) GetByID(ctx context.Context, id uint) (*models.WildFind, error) {
	var find models.WildFind
	if err := r.db.WithContext(ctx).Preload("User").First(&find, id).Error; err != nil {
		return nil, notFoundOr(err, "WildFind", id)
	}
	return &find, nil
}

func (r *wildFindRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.WildFind{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("WildFind", id)
	}
	return nil
}

func (r *wildFindRepository) ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]models.WildFind, error) {
	finds := []models.WildFind{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Scopes(Paginate(limit, offset)).
		Find(&finds).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return finds, nil
}

// ListByOwners returns every find owned by any of ownerIDs, unpaginated.
func (r *wildFindRepository) ListByOwners(ctx context.Context, ownerIDs []uint) ([]models.WildFind, error) {
	finds := []models.WildFind{}
	if len(ownerIDs) == 0 {
		return finds, nil
	}
	err := r.db.WithContext(ctx).Preload("User").
		Where("user_id IN ?", ownerIDs).
		Find(&finds).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return finds, nil
}
