package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"customer-option-service/models"
	"customer-option-service/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func updateRequest(product *models.Product) models.PriceUpdateRequest {
	return models.PriceUpdateRequest{
		CustomerOptionCode:      "coating",
		CustomerOptionValueCode: "blue",
		ChannelCode:             "WEB",
		Product:                 product,
		Type:                    "fixed_amount",
		Amount:                  1200,
	}
}

func TestPriceUpdater_CreatesPrice(t *testing.T) {
	options := newFakeOptions()
	updater := services.NewPriceUpdater(options)
	product := &models.Product{ID: uuid.New(), Code: "FRAME-1"}

	price, err := updater.UpdateForProduct(context.Background(), updateRequest(product))
	require.NoError(t, err)

	assert.Equal(t, uuid.Nil, price.ID)
	assert.Equal(t, options.values["blue"].ID, price.CustomerOptionValueID)
	assert.Equal(t, options.channel.ID, price.ChannelID)
	assert.Equal(t, product.ID, *price.ProductID)
	assert.Equal(t, models.PriceTypeFixedAmount, price.Type)
	assert.Equal(t, 1200, price.Amount)
	assert.Nil(t, price.DateValid())
	assert.Empty(t, product.CustomerOptionValuePrices, "the caller attaches the price")
}

func TestPriceUpdater_UpdatesPriceWithSameWindow(t *testing.T) {
	options := newFakeOptions()
	updater := services.NewPriceUpdater(options)

	existing := &models.CustomerOptionValuePrice{
		ID:                    uuid.New(),
		CustomerOptionValueID: options.values["blue"].ID,
		ChannelID:             options.channel.ID,
		Type:                  models.PriceTypeFixedAmount,
		Amount:                500,
	}
	existing.SetDateValid(&models.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	product := &models.Product{ID: uuid.New(), CustomerOptionValuePrices: []*models.CustomerOptionValuePrice{existing}}

	req := updateRequest(product)
	req.ValidFrom = "2024-01-01T00:00:00Z"
	req.ValidTo = "2024-12-31"
	req.Type = "PERCENT"
	req.Amount = 0
	req.Percent = 0.1

	price, err := updater.UpdateForProduct(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, existing, price)
	assert.Equal(t, models.PriceTypePercent, price.Type)
	assert.Equal(t, 0.1, price.Percent)
}

func TestPriceUpdater_UnrestrictedPriceIsReused(t *testing.T) {
	options := newFakeOptions()
	updater := services.NewPriceUpdater(options)
	existing := &models.CustomerOptionValuePrice{
		ID:                    uuid.New(),
		CustomerOptionValueID: options.values["blue"].ID,
		ChannelID:             options.channel.ID,
	}
	product := &models.Product{ID: uuid.New(), CustomerOptionValuePrices: []*models.CustomerOptionValuePrice{existing}}

	price, err := updater.UpdateForProduct(context.Background(), updateRequest(product))
	require.NoError(t, err)
	assert.Same(t, existing, price)
}

func TestPriceUpdater_DomainFailures(t *testing.T) {
	product := &models.Product{ID: uuid.New()}

	cases := map[string]func(*models.PriceUpdateRequest){
		"unknown value":    func(r *models.PriceUpdateRequest) { r.CustomerOptionValueCode = "green" },
		"unknown channel":  func(r *models.PriceUpdateRequest) { r.ChannelCode = "POS" },
		"unknown type":     func(r *models.PriceUpdateRequest) { r.Type = "BARTER" },
		"percent too high": func(r *models.PriceUpdateRequest) { r.Percent = 1.5 },
		"negative amount":  func(r *models.PriceUpdateRequest) { r.Amount = -1 },
		"half window":      func(r *models.PriceUpdateRequest) { r.ValidFrom = "2024-01-01" },
		"reversed window":  func(r *models.PriceUpdateRequest) { r.ValidFrom, r.ValidTo = "2024-02-01", "2024-01-01" },
		"bad date":         func(r *models.PriceUpdateRequest) { r.ValidFrom, r.ValidTo = "yesterday", "2024-01-01" },
		"missing option":   func(r *models.PriceUpdateRequest) { r.CustomerOptionCode = "" },
		"missing product":  func(r *models.PriceUpdateRequest) { r.Product = nil },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := updateRequest(product)
			mutate(&req)

			_, err := services.NewPriceUpdater(newFakeOptions()).UpdateForProduct(context.Background(), req)
			var pue *services.PriceUpdateError
			assert.True(t, errors.As(err, &pue), "got %v", err)
		})
	}
}

func TestPriceUpdater_RepositoryError(t *testing.T) {
	options := newFakeOptions()
	options.err = errBoom

	_, err := services.NewPriceUpdater(options).UpdateForProduct(context.Background(), updateRequest(&models.Product{}))
	assert.ErrorIs(t, err, errBoom)
}
