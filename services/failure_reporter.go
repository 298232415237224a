package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"customer-option-service/models"
	"customer-option-service/sender"

	"go.uber.org/zap"
)

// adminNotifier mails the authenticated admin. Without one it does nothing.
type adminNotifier struct {
	sender sender.Sender
	tokens TokenStorage
	logger *zap.Logger
}

func (n adminNotifier) recipient(ctx context.Context) (string, bool) {
	admin := n.tokens.CurrentAdmin(ctx)
	if admin == nil || admin.Email == "" {
		n.logger.Debug("no authenticated admin, skipping import report")
		return "", false
	}
	return admin.Email, true
}

func (n adminNotifier) notify(ctx context.Context, templateCode string, data map[string]any, attachments ...string) error {
	email, ok := n.recipient(ctx)
	if !ok {
		return nil
	}
	return n.sender.Send(ctx, templateCode, []string{email}, data, attachments...)
}

// ImportErrorHandler forwards a failure mapping plus caller context to the admin.
type ImportErrorHandler interface {
	HandleErrors(ctx context.Context, errors map[string]string, extraData map[string]any) error
}

type GenericImportErrorHandler struct {
	notifier  adminNotifier
	emailCode string
}

func NewGenericImportErrorHandler(s sender.Sender, tokens TokenStorage, emailCode string, logger *zap.Logger) *GenericImportErrorHandler {
	return &GenericImportErrorHandler{
		notifier:  adminNotifier{sender: s, tokens: tokens, logger: logger},
		emailCode: emailCode,
	}
}

func (h *GenericImportErrorHandler) HandleErrors(ctx context.Context, errors map[string]string, extraData map[string]any) error {
	if len(errors) == 0 {
		return nil
	}
	return h.notifier.notify(ctx, h.emailCode, map[string]any{
		"errors":    errors,
		"extraData": extraData,
	})
}

// FailureReporter reports the failed rows of a CSV import.
type FailureReporter interface {
	Report(ctx context.Context, failures []models.ImportFailure) error
}

// CSVFailureReporter mails the admin the failures together with a CSV of the
// failed rows: "Line", "Error", then the original columns.
type CSVFailureReporter struct {
	notifier adminNotifier
	tempDir  string
}

// NewCSVFailureReporter creates the reporter. tempDir "" means os.TempDir().
func NewCSVFailureReporter(s sender.Sender, tokens TokenStorage, tempDir string, logger *zap.Logger) *CSVFailureReporter {
	return &CSVFailureReporter{
		notifier: adminNotifier{sender: s, tokens: tokens, logger: logger},
		tempDir:  tempDir,
	}
}

func (r *CSVFailureReporter) Report(ctx context.Context, failures []models.ImportFailure) error {
	if len(failures) == 0 {
		return nil
	}
	email, ok := r.notifier.recipient(ctx)
	if !ok {
		return nil
	}

	path, err := r.writeCSV(failures)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	return r.notifier.sender.Send(ctx, sender.TemplateFailedCSVPriceImport, []string{email},
		map[string]any{"failed": models.FailureMessages(failures)}, path)
}

func (r *CSVFailureReporter) writeCSV(failures []models.ImportFailure) (string, error) {
	f, err := os.CreateTemp(r.tempDir, "failed-price-import-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create failure report: %w", err)
	}

	if err := writeFailures(f, failures); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close failure report: %w", err)
	}
	return f.Name(), nil
}

func writeFailures(f *os.File, failures []models.ImportFailure) error {
	header := []string{"Line", "Error"}
	if first := failures[0].Row; first != nil {
		header = append(header, first.Columns...)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write failure report: %w", err)
	}
	for _, failure := range failures {
		record := []string{failure.Key, failure.Message}
		if failure.Row != nil {
			record = append(record, failure.Row.Values()...)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write failure report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write failure report: %w", err)
	}
	return nil
}
