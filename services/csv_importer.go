package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"customer-option-service/models"
	"customer-option-service/reader"
	"customer-option-service/repository"

	"go.uber.org/zap"
)

// DefaultBatchSize is the number of imported prices between two flushes.
const DefaultBatchSize = 100

const invalidRowMessage = "Data is invalid"

// rowOutcome is the result of processing one row: priceImported or rowFailed.
type rowOutcome interface {
	isRowOutcome()
}

type priceImported struct {
	product *models.Product
	price   *models.CustomerOptionValuePrice
}

type rowFailed struct {
	message string
}

func (priceImported) isRowOutcome() {}
func (rowFailed) isRowOutcome()     {}

// productCache memoizes product lookups for one run, including misses.
type productCache map[string]*models.Product

// CSVImporter imports customer option value prices from a CSV or XLSX source.
type CSVImporter struct {
	reader    reader.CsvReader
	products  repository.ProductRepository
	updater   PriceUpdater
	prices    repository.PriceRepository
	reporter  FailureReporter
	batchSize int
	logger    *zap.Logger
}

func NewCSVImporter(
	csvReader reader.CsvReader,
	products repository.ProductRepository,
	updater PriceUpdater,
	prices repository.PriceRepository,
	reporter FailureReporter,
	batchSize int,
	logger *zap.Logger,
) *CSVImporter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &CSVImporter{
		reader:    csvReader,
		products:  products,
		updater:   updater,
		prices:    prices,
		reporter:  reporter,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Import reads every row of source and updates the described prices. Bad rows
// are recorded and skipped. Errors reading the source, looking up products,
// flushing or reporting abort the run.
func (i *CSVImporter) Import(ctx context.Context, source string) (*models.PriceImportResult, error) {
	rows, err := i.reader.ReadCsv(ctx, source)
	if err != nil {
		return nil, err
	}

	cache := productCache{}
	var failures []models.ImportFailure
	imported := 0

	for idx := range rows {
		row := &rows[idx]

		outcome, err := i.processRow(ctx, cache, row)
		if err != nil {
			return nil, err
		}

		switch o := outcome.(type) {
		case rowFailed:
			i.logger.Debug("price row failed", zap.Int("line", row.Line), zap.String("error", o.message))
			failures = append(failures, models.ImportFailure{Key: strconv.Itoa(row.Line), Row: row, Message: o.message})
		case priceImported:
			o.product.AddCustomerOptionValuePrice(o.price)
			i.prices.Persist(o.price)
			imported++
			if imported%i.batchSize == 0 {
				if err := i.prices.Flush(ctx); err != nil {
					return nil, fmt.Errorf("failed to flush prices: %w", err)
				}
			}
		}
	}

	if err := i.prices.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush prices: %w", err)
	}

	if err := i.reporter.Report(ctx, failures); err != nil {
		return nil, fmt.Errorf("failed to report import errors: %w", err)
	}

	i.logger.Info("CSV price import finished",
		zap.String("source", source),
		zap.Int("imported", imported),
		zap.Int("failed", len(failures)),
	)

	return models.NewPriceImportResult(imported, failures), nil
}

// processRow returns an error only for failures that must abort the run.
func (i *CSVImporter) processRow(ctx context.Context, cache productCache, row *models.ImportRow) (rowOutcome, error) {
	if !i.reader.IsRowValid(*row, models.PriceImportFields) {
		return rowFailed{message: invalidRowMessage}, nil
	}

	code := strings.TrimSpace(row.Get(models.FieldProductCode))
	product, err := i.lookupProduct(ctx, cache, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %q: %w", code, err)
	}
	if product == nil {
		return rowFailed{message: (&ProductNotFoundError{Code: code}).Error()}, nil
	}

	amount, err := strconv.Atoi(strings.TrimSpace(row.Get(models.FieldAmount)))
	if err != nil {
		return rowFailed{message: fmt.Sprintf("invalid amount %q", row.Get(models.FieldAmount))}, nil
	}
	percent, err := strconv.ParseFloat(strings.TrimSpace(row.Get(models.FieldPercent)), 64)
	if err != nil {
		return rowFailed{message: fmt.Sprintf("invalid percent %q", row.Get(models.FieldPercent))}, nil
	}

	price, err := i.updater.UpdateForProduct(ctx, models.PriceUpdateRequest{
		CustomerOptionCode:      strings.TrimSpace(row.Get(models.FieldCustomerOptionCode)),
		CustomerOptionValueCode: strings.TrimSpace(row.Get(models.FieldCustomerOptionValueCode)),
		ChannelCode:             strings.TrimSpace(row.Get(models.FieldChannelCode)),
		Product:                 product,
		ValidFrom:               row.Get(models.FieldValidFrom),
		ValidTo:                 row.Get(models.FieldValidTo),
		Type:                    row.Get(models.FieldType),
		Amount:                  amount,
		Percent:                 percent,
	})
	if err != nil {
		return rowFailed{message: failureMessage(err)}, nil
	}
	return priceImported{product: product, price: price}, nil
}

func (i *CSVImporter) lookupProduct(ctx context.Context, cache productCache, code string) (*models.Product, error) {
	if product, ok := cache[code]; ok {
		return product, nil
	}
	product, err := i.products.FindOneByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	cache[code] = product
	return product, nil
}

// failureMessage unwraps domain errors to their bare message.
func failureMessage(err error) string {
	var pue *PriceUpdateError
	if errors.As(err, &pue) {
		return pue.Message
	}
	return err.Error()
}
