package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Import kinds recorded on a PriceImportRun.
const (
	ImportKindCSV       = "csv"
	ImportKindByExample = "by_example"
)

// Fields of a customer option price import row.
const (
	FieldCustomerOptionCode      = "customer_option_code"
	FieldCustomerOptionValueCode = "customer_option_value_code"
	FieldChannelCode             = "channel_code"
	FieldValidFrom               = "valid_from"
	FieldValidTo                 = "valid_to"
	FieldType                    = "type"
	FieldAmount                  = "amount"
	FieldPercent                 = "percent"
	FieldProductCode             = "product_code"
)

// RequiredFieldSpec maps a field name to whether it is mandatory.
type RequiredFieldSpec map[string]bool

// PriceImportFields is the field spec every CSV price row is checked against.
var PriceImportFields = RequiredFieldSpec{
	FieldCustomerOptionCode:      true,
	FieldCustomerOptionValueCode: true,
	FieldChannelCode:             true,
	FieldValidFrom:               false,
	FieldValidTo:                 false,
	FieldType:                    true,
	FieldAmount:                  true,
	FieldPercent:                 true,
	FieldProductCode:             true,
}

// ImportRow is one data line of an import source.
type ImportRow struct {
	// Line is the 1-based data row number, the header excluded.
	Line    int               `json:"line"`
	Columns []string          `json:"columns"`
	Data    map[string]string `json:"data"`
}

// Get returns the value of a field, or "" when the row has no such column.
func (r ImportRow) Get(field string) string {
	return r.Data[field]
}

// Values returns the row values in column order.
func (r ImportRow) Values() []string {
	values := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		values[i] = r.Data[col]
	}
	return values
}

// ImportFailure records why a row or product code could not be imported.
type ImportFailure struct {
	// Key is the line number for CSV imports and the product code for by-example imports.
	Key     string     `json:"key"`
	Row     *ImportRow `json:"row,omitempty"`
	Message string     `json:"message"`
}

// PriceImportResult summarizes one import run. It is not modified after creation.
type PriceImportResult struct {
	imported int
	errors   []ImportFailure
}

// NewPriceImportResult copies the failure list so later changes by the caller do not leak in.
func NewPriceImportResult(imported int, errors []ImportFailure) *PriceImportResult {
	copied := make([]ImportFailure, len(errors))
	copy(copied, errors)
	return &PriceImportResult{imported: imported, errors: copied}
}

func (r *PriceImportResult) Imported() int { return r.imported }

func (r *PriceImportResult) Failed() int { return len(r.errors) }

// Errors returns a copy of the failures in input order.
func (r *PriceImportResult) Errors() []ImportFailure {
	copied := make([]ImportFailure, len(r.errors))
	copy(copied, r.errors)
	return copied
}

// FailureMessages maps each failure key to its message.
func (r *PriceImportResult) FailureMessages() map[string]string {
	return FailureMessages(r.errors)
}

// FailureMessages maps each failure key to its message. A key that failed more
// than once keeps its last message, so the map can be shorter than the list.
func FailureMessages(failures []ImportFailure) map[string]string {
	messages := make(map[string]string, len(failures))
	for _, f := range failures {
		messages[f.Key] = f.Message
	}
	return messages
}

// PriceImportRun is the persisted history entry of an import.
type PriceImportRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind       string         `gorm:"type:varchar(20);not null;index" json:"kind"`
	Source     string         `gorm:"type:varchar(1024)" json:"source"`
	Imported   int            `gorm:"not null;default:0" json:"imported"`
	Failed     int            `gorm:"not null;default:0" json:"failed"`
	Failures   datatypes.JSON `gorm:"type:jsonb" json:"failures,omitempty"`
	AdminEmail string         `gorm:"type:varchar(255);index" json:"admin_email"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// PriceImportRunFilter narrows the import history listing.
type PriceImportRunFilter struct {
	Kind     string
	Page     int
	PageSize int
}

// PriceImportResponse is the JSON body returned after an import.
type PriceImportResponse struct {
	RunID    uuid.UUID       `json:"run_id"`
	Imported int             `json:"imported"`
	Failed   int             `json:"failed"`
	Errors   []ImportFailure `json:"errors"`
}

// PricesImportedEvent is published to SNS when an import run finishes.
type PricesImportedEvent struct {
	EventType  string    `json:"event_type"`
	RunID      string    `json:"run_id"`
	Kind       string    `json:"kind"`
	Imported   int       `json:"imported"`
	Failed     int       `json:"failed"`
	AdminEmail string    `json:"admin_email"`
	Timestamp  time.Time `json:"timestamp"`
}
