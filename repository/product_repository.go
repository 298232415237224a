package repository

import (
	"context"
	"errors"

	"customer-option-service/models"

	"gorm.io/gorm"
)

// ProductRepository resolves products by code.
type ProductRepository interface {
	// FindOneByCode returns nil without an error when no product has the code.
	FindOneByCode(ctx context.Context, code string) (*models.Product, error)
}

type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) ProductRepository {
	return &GormProductRepository{db: db}
}

// FindOneByCode loads the product together with its option value prices.
func (r *GormProductRepository) FindOneByCode(ctx context.Context, code string) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).
		Preload("CustomerOptionValuePrices").
		Where("code = ?", code).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
