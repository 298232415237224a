package repository

import (
	"context"
	"errors"
	"fmt"

	"customer-option-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PriceRepository reads prices and buffers writes until Flush commits them.
type PriceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.CustomerOptionValuePrice, error)
	// Persist queues a created or updated price. Queuing the same price twice writes it once.
	Persist(price *models.CustomerOptionValuePrice)
	// Flush writes every queued price in one transaction and clears the queue.
	Flush(ctx context.Context) error
}

type GormPriceRepository struct {
	db      *gorm.DB
	pending []*models.CustomerOptionValuePrice
}

func NewGormPriceRepository(db *gorm.DB) *GormPriceRepository {
	return &GormPriceRepository{db: db}
}

// FindByID loads a price with its option value, option and channel.
func (r *GormPriceRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CustomerOptionValuePrice, error) {
	var p models.CustomerOptionValuePrice
	err := r.db.WithContext(ctx).
		Preload("CustomerOptionValue.CustomerOption").
		Preload("Channel").
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPriceRepository) Persist(price *models.CustomerOptionValuePrice) {
	for _, p := range r.pending {
		if p == price {
			return
		}
	}
	r.pending = append(r.pending, price)
}

// Pending returns how many prices wait for the next Flush.
func (r *GormPriceRepository) Pending() int {
	return len(r.pending)
}

func (r *GormPriceRepository) Flush(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}

	var created, updated []*models.CustomerOptionValuePrice
	for _, p := range r.pending {
		if p.ID == uuid.Nil {
			created = append(created, p)
		} else {
			updated = append(updated, p)
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(created) > 0 {
			if err := tx.Omit(clause.Associations).Create(&created).Error; err != nil {
				return fmt.Errorf("insert prices: %w", err)
			}
		}
		for _, p := range updated {
			if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
				return fmt.Errorf("update price %s: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.pending = r.pending[:0]
	return nil
}
