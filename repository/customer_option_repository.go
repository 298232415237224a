package repository

import (
	"context"
	"errors"

	"customer-option-service/models"

	"gorm.io/gorm"
)

// CustomerOptionRepository reads customer options, their values and channels.
type CustomerOptionRepository interface {
	FindOptionByCode(ctx context.Context, code string) (*models.CustomerOption, error)
	FindValue(ctx context.Context, optionCode, valueCode string) (*models.CustomerOptionValue, error)
	FindChannelByCode(ctx context.Context, code string) (*models.Channel, error)
}

type GormCustomerOptionRepository struct {
	db *gorm.DB
}

func NewGormCustomerOptionRepository(db *gorm.DB) CustomerOptionRepository {
	return &GormCustomerOptionRepository{db: db}
}

func (r *GormCustomerOptionRepository) FindOptionByCode(ctx context.Context, code string) (*models.CustomerOption, error) {
	var o models.CustomerOption
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&o).Error
	return found(&o, err)
}

// FindValue returns the value with valueCode belonging to the option with optionCode.
func (r *GormCustomerOptionRepository) FindValue(ctx context.Context, optionCode, valueCode string) (*models.CustomerOptionValue, error) {
	var v models.CustomerOptionValue
	err := r.db.WithContext(ctx).
		Joins("CustomerOption").
		Where(`"customer_option_values"."code" = ? AND "CustomerOption"."code" = ?`, valueCode, optionCode).
		First(&v).Error
	return found(&v, err)
}

func (r *GormCustomerOptionRepository) FindChannelByCode(ctx context.Context, code string) (*models.Channel, error) {
	var c models.Channel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	return found(&c, err)
}

// found maps gorm's not-found error to a nil result.
func found[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
