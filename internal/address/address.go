package address

import (
	"context"

	"github.com/dukerupert/greencart/internal/domain"
)

// Validator defines the interface for shipping address validation.
// Implementations can use external APIs; BasicValidator checks structure only.
type Validator interface {
	// Validate checks that an address is complete and well formed.
	// Even if IsValid is false, NormalizedAddress holds the trimmed input.
	Validate(ctx context.Context, addr domain.ShippingAddress) (*ValidationResult, error)
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool
	NormalizedAddress *domain.ShippingAddress
	Errors            []ValidationError
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string
	Message string
}

// AsDomainError converts a failed result into a domain.ValidationError.
// Returns nil for a valid result.
func (r *ValidationResult) AsDomainError(op string) error {
	if r == nil || r.IsValid {
		return nil
	}
	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(r.Errors))}
	for _, e := range r.Errors {
		ve.Fields[e.Field] = e.Message
	}
	return ve
}
