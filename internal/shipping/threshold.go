package shipping

import (
	"context"

	"github.com/shopspring/decimal"
)

var (
	// DefaultFreeThreshold is the subtotal above which shipping is free.
	DefaultFreeThreshold = decimal.NewFromInt(500)

	// DefaultFlatFee is charged when the subtotal does not exceed the threshold.
	DefaultFlatFee = decimal.NewFromInt(50)
)

// ThresholdProvider charges a flat fee unless the subtotal is strictly
// greater than the free-shipping threshold.
type ThresholdProvider struct {
	threshold decimal.Decimal
	fee       decimal.Decimal
}

// NewThresholdProvider creates a threshold-based shipping provider.
func NewThresholdProvider(threshold, fee decimal.Decimal) (Provider, error) {
	if threshold.IsNegative() || fee.IsNegative() {
		return nil, ErrInvalidConfig
	}
	return &ThresholdProvider{threshold: threshold, fee: fee}, nil
}

// GetRates returns the single standard rate for the order.
func (p *ThresholdProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	if params.Subtotal.IsNegative() {
		return nil, ErrInvalidSubtotal
	}

	cost := p.fee
	name := "Standard Shipping"
	if params.Subtotal.GreaterThan(p.threshold) {
		cost = decimal.Zero
		name = "Free Shipping"
	}

	return []Rate{{
		ServiceName:      name,
		ServiceCode:      "STD",
		Cost:             cost,
		EstimatedDaysMin: 3,
		EstimatedDaysMax: 7,
	}}, nil
}
