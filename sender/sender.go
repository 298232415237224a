package sender

import (
	"context"
)

// Template codes used by the price importers.
const (
	TemplateFailedCSVPriceImport       = "failed_csv_price_import"
	TemplateFailedPriceByExampleImport = "failed_price_by_example_import"
	TemplateImportErrors               = "import_errors"
)

// Sender delivers a templated message to recipients, optionally with file attachments.
type Sender interface {
	Send(ctx context.Context, templateCode string, recipients []string, data map[string]any, attachments ...string) error
}
