package services

import (
	"context"
	"fmt"
	"strings"

	"customer-option-service/constraints"
	"customer-option-service/models"
	"customer-option-service/repository"

	"github.com/go-playground/validator/v10"
)

// PriceUpdater creates or updates the price of a customer option value for a product.
type PriceUpdater interface {
	UpdateForProduct(ctx context.Context, req models.PriceUpdateRequest) (*models.CustomerOptionValuePrice, error)
}

type priceUpdaterImpl struct {
	options  repository.CustomerOptionRepository
	validate *validator.Validate
}

func NewPriceUpdater(options repository.CustomerOptionRepository) PriceUpdater {
	return &priceUpdaterImpl{
		options:  options,
		validate: validator.New(),
	}
}

// UpdateForProduct returns the price for the option value, channel and window
// on the product. A price with the same value, channel and window is updated
// in place, otherwise a new one is created. The returned price is not saved.
func (u *priceUpdaterImpl) UpdateForProduct(ctx context.Context, req models.PriceUpdateRequest) (*models.CustomerOptionValuePrice, error) {
	if err := u.validate.Struct(req); err != nil {
		return nil, newPriceUpdateError("invalid price data: %s", describeValidation(err))
	}

	priceType, err := models.ParsePriceType(req.Type)
	if err != nil {
		return nil, &PriceUpdateError{Message: err.Error()}
	}

	window, err := parseWindow(req.ValidFrom, req.ValidTo)
	if err != nil {
		return nil, err
	}

	value, err := u.options.FindValue(ctx, req.CustomerOptionCode, req.CustomerOptionValueCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer option value: %w", err)
	}
	if value == nil {
		return nil, newPriceUpdateError("Customer option value %q of option %q not found", req.CustomerOptionValueCode, req.CustomerOptionCode)
	}

	channel, err := u.options.FindChannelByCode(ctx, req.ChannelCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load channel: %w", err)
	}
	if channel == nil {
		return nil, newPriceUpdateError("Channel with code %q not found", req.ChannelCode)
	}

	price, err := matchingPrice(req.Product, value, channel, window)
	if err != nil {
		return nil, err
	}

	price.Type = priceType
	price.Amount = req.Amount
	price.Percent = req.Percent
	productID := req.Product.ID
	price.ProductID = &productID
	return price, nil
}

func matchingPrice(product *models.Product, value *models.CustomerOptionValue, channel *models.Channel, window *models.DateRange) (*models.CustomerOptionValuePrice, error) {
	var conflict *models.DateRange
	for _, p := range product.CustomerOptionValuePrices {
		if p.CustomerOptionValueID != value.ID || p.ChannelID != channel.ID {
			continue
		}
		existing := p.DateValid()
		if sameWindow(existing, window) {
			return p, nil
		}
		if existing != nil && window != nil && existing.Overlaps(*window) {
			conflict = existing
		}
	}
	if conflict != nil {
		return nil, newPriceUpdateError("Price for %q in channel %q overlaps an existing price valid from %s to %s",
			value.Code, channel.Code, conflict.Start.Format("2006-01-02 15:04:05"), conflict.End.Format("2006-01-02 15:04:05"))
	}

	price := &models.CustomerOptionValuePrice{
		CustomerOptionValueID: value.ID,
		CustomerOptionValue:   value,
		ChannelID:             channel.ID,
		Channel:               channel,
	}
	price.SetDateValid(window)
	return price, nil
}

func sameWindow(a, b *models.DateRange) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// parseWindow returns nil when both bounds are blank.
func parseWindow(from, to string) (*models.DateRange, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" && to == "" {
		return nil, nil
	}
	if from == "" || to == "" {
		return nil, newPriceUpdateError("valid_from and valid_to must be given together")
	}

	start, err := constraints.ParseDate(from)
	if err != nil {
		return nil, newPriceUpdateError("invalid valid_from: %s", err)
	}
	end, err := constraints.ParseDate(to)
	if err != nil {
		return nil, newPriceUpdateError("invalid valid_to: %s", err)
	}
	if start.After(end) {
		return nil, newPriceUpdateError("valid_from must not be after valid_to")
	}
	return &models.DateRange{Start: start, End: end}, nil
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
