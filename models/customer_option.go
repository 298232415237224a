package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Customer option type tags.
const (
	OptionTypeText     = "TEXT"
	OptionTypeFile     = "FILE"
	OptionTypeDate     = "DATE"
	OptionTypeDateTime = "DATETIME"
	OptionTypeNumber   = "NUMBER"
	OptionTypeSelect   = "SELECT"
	OptionTypeBoolean  = "BOOLEAN"
)

// Channel is a sales channel prices are scoped to.
type Channel struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code         string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
	CurrencyCode string    `gorm:"type:varchar(3)" json:"currency_code"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CustomerOption is a configurable product add-on, e.g. a lens coating.
type CustomerOption struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Name     string    `gorm:"type:varchar(255)" json:"name"`
	Type     string    `gorm:"type:varchar(20);not null" json:"type"`
	Required bool      `gorm:"not null;default:false" json:"required"`
	// Configuration holds type-specific settings such as "min.number" or "allowed_types".
	Configuration datatypes.JSONMap     `gorm:"type:jsonb" json:"configuration"`
	Values        []CustomerOptionValue `gorm:"foreignKey:CustomerOptionID" json:"values,omitempty"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt        `gorm:"index" json:"-"`
}

// CustomerOptionValue is one selectable value of a customer option.
type CustomerOptionValue struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code             string          `gorm:"type:varchar(64);uniqueIndex:idx_option_value_code;not null" json:"code"`
	Name             string          `gorm:"type:varchar(255)" json:"name"`
	CustomerOptionID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_option_value_code;not null" json:"customer_option_id"`
	CustomerOption   *CustomerOption `gorm:"foreignKey:CustomerOptionID" json:"customer_option,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ValidateOptionRequest is the payload for validating submitted option values.
type ValidateOptionRequest struct {
	Value any            `json:"value"`
	Form  map[string]any `json:"form"`
}
