package services

import (
	"context"

	"customer-option-service/models"
	"customer-option-service/reader"
	"customer-option-service/repository"
	"customer-option-service/sender"

	"go.uber.org/zap"
)

type CSVPriceImporter interface {
	Import(ctx context.Context, source string) (*models.PriceImportResult, error)
}

type ByExamplePriceImporter interface {
	ImportForProducts(ctx context.Context, productCodes []string, example *models.CustomerOptionValuePrice) (*models.PriceImportResult, error)
}

// ImporterFactory hands out importers for a single run. Importers buffer
// writes, so they are never shared between runs.
type ImporterFactory interface {
	NewCSVImporter() CSVPriceImporter
	NewByExampleImporter() ByExamplePriceImporter
}

type importerFactory struct {
	reader    reader.CsvReader
	products  repository.ProductRepository
	updater   PriceUpdater
	newSink   func() repository.PriceRepository
	reporter  FailureReporter
	sender    sender.Sender
	tokens    TokenStorage
	batchSize int
	logger    *zap.Logger
}

func NewImporterFactory(
	csvReader reader.CsvReader,
	products repository.ProductRepository,
	updater PriceUpdater,
	newSink func() repository.PriceRepository,
	reporter FailureReporter,
	s sender.Sender,
	tokens TokenStorage,
	batchSize int,
	logger *zap.Logger,
) ImporterFactory {
	return &importerFactory{
		reader:    csvReader,
		products:  products,
		updater:   updater,
		newSink:   newSink,
		reporter:  reporter,
		sender:    s,
		tokens:    tokens,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (f *importerFactory) NewCSVImporter() CSVPriceImporter {
	return NewCSVImporter(f.reader, f.products, f.updater, f.newSink(), f.reporter, f.batchSize, f.logger)
}

func (f *importerFactory) NewByExampleImporter() ByExamplePriceImporter {
	return NewByExampleImporter(f.products, f.updater, f.newSink(), f.sender, f.tokens, f.batchSize, f.logger)
}
