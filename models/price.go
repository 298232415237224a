package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PriceType decides whether a customer option value price is a fixed amount or a percentage.
type PriceType string

const (
	PriceTypeFixedAmount PriceType = "FIXED_AMOUNT"
	PriceTypePercent     PriceType = "PERCENT"
)

// ParsePriceType accepts the type column of an import row, case-insensitively.
func ParsePriceType(s string) (PriceType, error) {
	switch PriceType(strings.ToUpper(strings.TrimSpace(s))) {
	case PriceTypeFixedAmount:
		return PriceTypeFixedAmount, nil
	case PriceTypePercent:
		return PriceTypePercent, nil
	}
	return "", fmt.Errorf("invalid price type %q", s)
}

// DateRange is the validity window of a price. Both ends are inclusive.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two windows share at least one instant.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Start.After(o.End) && !o.Start.After(r.End)
}

// Equal reports whether both windows have the same bounds.
func (r DateRange) Equal(o DateRange) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// CustomerOptionValuePrice is the price of a customer option value for a product in a channel.
// A price without a product is the value's default price.
type CustomerOptionValuePrice struct {
	ID                    uuid.UUID            `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerOptionValueID uuid.UUID            `gorm:"type:uuid;not null;index" json:"customer_option_value_id"`
	CustomerOptionValue   *CustomerOptionValue `gorm:"foreignKey:CustomerOptionValueID" json:"customer_option_value,omitempty"`
	ChannelID             uuid.UUID            `gorm:"type:uuid;not null;index" json:"channel_id"`
	Channel               *Channel             `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
	ProductID             *uuid.UUID           `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Type                  PriceType            `gorm:"type:varchar(20);not null" json:"type"`
	Amount                int                  `gorm:"not null;default:0" json:"amount"`
	Percent               float64              `gorm:"not null;default:0" json:"percent"`
	ValidFrom             *time.Time           `json:"valid_from,omitempty"`
	ValidTo               *time.Time           `json:"valid_to,omitempty"`
	CreatedAt             time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// DateValid returns the validity window, or nil for an unrestricted price.
func (p *CustomerOptionValuePrice) DateValid() *DateRange {
	if p.ValidFrom == nil || p.ValidTo == nil {
		return nil
	}
	return &DateRange{Start: *p.ValidFrom, End: *p.ValidTo}
}

// SetDateValid replaces the validity window; nil clears it.
func (p *CustomerOptionValuePrice) SetDateValid(r *DateRange) {
	if r == nil {
		p.ValidFrom, p.ValidTo = nil, nil
		return
	}
	start, end := r.Start, r.End
	p.ValidFrom, p.ValidTo = &start, &end
}

// PriceUpdateRequest carries everything the price updater needs for one product.
// Type, amount and percent semantics belong to the updater.
type PriceUpdateRequest struct {
	CustomerOptionCode      string   `validate:"required"`
	CustomerOptionValueCode string   `validate:"required"`
	ChannelCode             string   `validate:"required"`
	Product                 *Product `validate:"required"`
	ValidFrom               string
	ValidTo                 string
	Type                    string  `validate:"required"`
	Amount                  int     `validate:"gte=0"`
	Percent                 float64 `validate:"gte=0,lte=1"`
}

// ImportByExampleRequest is the payload for propagating one price to many products.
type ImportByExampleRequest struct {
	ProductCodes   []string  `json:"product_codes" binding:"required,min=1,dive,required"`
	ExamplePriceID uuid.UUID `json:"example_price_id" binding:"required"`
}

// ImportFromSourceRequest is the JSON alternative to a multipart upload.
type ImportFromSourceRequest struct {
	Source string `json:"source" binding:"required"`
}
