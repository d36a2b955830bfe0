package entity

import (
	"errors"
	"fmt"
)

// Error kinds. Validation failures wrap one of these so callers can match
// them with errors.Is.
var (
	ErrMissingRequiredOption = errors.New("missing required option")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrInvalidQuantity       = errors.New("quantity must be a positive integer")
	ErrQuantityLimit         = errors.New("quantity exceeds the per-add limit")
	ErrProductNotFound       = errors.New("product not found")
	ErrOutOfStock            = errors.New("requested quantity is not available")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrOrderNotFound         = errors.New("order not found")
	ErrInquiryNotFound       = errors.New("inquiry not found")
	ErrInsufficientStock     = errors.New("stock cannot go below zero")
)

// ValidationError is a typed failure returned when input cannot be resolved
// into a line item or request. Kind is one of the sentinel errors above.
type ValidationError struct {
	Kind    error
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// NewValidationError builds a ValidationError of the given kind.
func NewValidationError(kind error, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}
