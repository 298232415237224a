package services

import (
	"context"
	"fmt"
	"time"

	"customer-option-service/models"
	"customer-option-service/repository"
	"customer-option-service/sender"

	"go.uber.org/zap"
)

// ByExampleImporter copies one example price onto many products.
type ByExampleImporter struct {
	products  repository.ProductRepository
	updater   PriceUpdater
	prices    repository.PriceRepository
	notifier  adminNotifier
	batchSize int
	logger    *zap.Logger
}

func NewByExampleImporter(
	products repository.ProductRepository,
	updater PriceUpdater,
	prices repository.PriceRepository,
	s sender.Sender,
	tokens TokenStorage,
	batchSize int,
	logger *zap.Logger,
) *ByExampleImporter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ByExampleImporter{
		products:  products,
		updater:   updater,
		prices:    prices,
		notifier:  adminNotifier{sender: s, tokens: tokens, logger: logger},
		batchSize: batchSize,
		logger:    logger,
	}
}

// ImportForProducts applies the example's option value, channel, window, type,
// amount and percent to every product code in order. Failures are keyed by
// product code. Lookup, flush and mail errors abort the run. The example must
// have its option value, option and channel loaded.
func (i *ByExampleImporter) ImportForProducts(ctx context.Context, productCodes []string, example *models.CustomerOptionValuePrice) (*models.PriceImportResult, error) {
	shared, err := exampleRequest(example)
	if err != nil {
		return nil, err
	}

	var failures []models.ImportFailure
	imported := 0

	for _, code := range productCodes {
		product, err := i.products.FindOneByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to look up product %q: %w", code, err)
		}

		var price *models.CustomerOptionValuePrice
		if product == nil {
			err = &ProductNotFoundError{Code: code}
		} else {
			req := shared
			req.Product = product
			price, err = i.updater.UpdateForProduct(ctx, req)
		}
		if err != nil {
			i.logger.Debug("price by example failed", zap.String("product_code", code), zap.Error(err))
			failures = append(failures, models.ImportFailure{Key: code, Message: failureMessage(err)})
			continue
		}

		i.prices.Persist(price)
		imported++
		if imported%i.batchSize == 0 {
			if err := i.prices.Flush(ctx); err != nil {
				return nil, fmt.Errorf("failed to flush prices: %w", err)
			}
		}
	}

	if err := i.prices.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush prices: %w", err)
	}

	result := models.NewPriceImportResult(imported, failures)
	if result.Failed() > 0 {
		if err := i.notifier.notify(ctx, sender.TemplateFailedPriceByExampleImport, map[string]any{"failed": result.FailureMessages()}); err != nil {
			return nil, fmt.Errorf("failed to report import errors: %w", err)
		}
	}

	i.logger.Info("price import by example finished",
		zap.String("example_price_id", example.ID.String()),
		zap.Int("imported", imported),
		zap.Int("failed", result.Failed()),
	)

	return result, nil
}

// exampleRequest extracts the parameters shared by every product of the run.
func exampleRequest(example *models.CustomerOptionValuePrice) (models.PriceUpdateRequest, error) {
	if example == nil || example.CustomerOptionValue == nil || example.CustomerOptionValue.CustomerOption == nil || example.Channel == nil {
		return models.PriceUpdateRequest{}, fmt.Errorf("example price is missing its option value or channel")
	}

	req := models.PriceUpdateRequest{
		CustomerOptionCode:      example.CustomerOptionValue.CustomerOption.Code,
		CustomerOptionValueCode: example.CustomerOptionValue.Code,
		ChannelCode:             example.Channel.Code,
		Type:                    string(example.Type),
		Amount:                  example.Amount,
		Percent:                 example.Percent,
	}
	if window := example.DateValid(); window != nil {
		req.ValidFrom = window.Start.Format(time.RFC3339)
		req.ValidTo = window.End.Format(time.RFC3339)
	}
	return req, nil
}
