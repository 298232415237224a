package services

import "fmt"

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

// PriceUpdateError is a domain failure raised while building a price. The
// importers record it against the row and carry on.
type PriceUpdateError struct {
	Message string
}

func (e *PriceUpdateError) Error() string { return e.Message }

func newPriceUpdateError(format string, args ...any) *PriceUpdateError {
	return &PriceUpdateError{Message: fmt.Sprintf(format, args...)}
}

// ProductNotFoundError is recorded when a product code does not resolve.
type ProductNotFoundError struct {
	Code string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Product with code %q not found", e.Code)
}
