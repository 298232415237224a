package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the catalog product prices get attached to.
type Product struct {
	ID                        uuid.UUID                   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code                      string                      `gorm:"type:varchar(128);uniqueIndex;not null" json:"code"`
	Name                      string                      `gorm:"type:varchar(255)" json:"name"`
	CustomerOptionValuePrices []*CustomerOptionValuePrice `gorm:"foreignKey:ProductID" json:"customer_option_value_prices,omitempty"`
	CreatedAt                 time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                 time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// AddCustomerOptionValuePrice attaches a price so that later checks on this
// in-memory product see it. Adding the same price twice is a no-op.
func (p *Product) AddCustomerOptionValuePrice(price *CustomerOptionValuePrice) {
	for _, existing := range p.CustomerOptionValuePrices {
		if existing == price {
			return
		}
	}
	id := p.ID
	price.ProductID = &id
	p.CustomerOptionValuePrices = append(p.CustomerOptionValuePrices, price)
}

// AdminUser is the authenticated administrator running an import.
type AdminUser struct {
	ID    string
	Email string
	Role  string
}
