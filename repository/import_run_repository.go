package repository

import (
	"context"

	"customer-option-service/models"

	"gorm.io/gorm"
)

// ImportRunRepository stores the history of price imports.
type ImportRunRepository interface {
	Create(ctx context.Context, run *models.PriceImportRun) error
	FindAll(ctx context.Context, filter models.PriceImportRunFilter) ([]models.PriceImportRun, int64, error)
}

type GormImportRunRepository struct {
	db *gorm.DB
}

func NewGormImportRunRepository(db *gorm.DB) ImportRunRepository {
	return &GormImportRunRepository{db: db}
}

func (r *GormImportRunRepository) Create(ctx context.Context, run *models.PriceImportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *GormImportRunRepository) FindAll(ctx context.Context, filter models.PriceImportRunFilter) ([]models.PriceImportRun, int64, error) {
	var runs []models.PriceImportRun
	var total int64

	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.PriceImportRun{})
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&runs).Error

	return runs, total, err
}
