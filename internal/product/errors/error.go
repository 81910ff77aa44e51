// Package errors provides custom error types for product-related operations.
package errors

import "errors"

var ErrProductNotFound = errors.New("product not found")

// ValidationError rejects a product payload. Its message is safe to return to clients.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

var (
	ErrMissingFields      = &ValidationError{msg: "Missing required fields"}
	ErrInvalidPrice       = &ValidationError{msg: "Price must be a positive number"}
	ErrInvalidInStockType = &ValidationError{msg: "inStock must be a boolean"}
)
