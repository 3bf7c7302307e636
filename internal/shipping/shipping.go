package shipping

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider defines the interface for pricing shipment of an order.
// Carrier integration is out of scope; implementations price from the order alone.
type Provider interface {
	// GetRates returns available shipping options for a shipment,
	// cheapest first.
	GetRates(ctx context.Context, params RateParams) ([]Rate, error)
}

// RateParams contains parameters for calculating shipping rates.
type RateParams struct {
	Subtotal  decimal.Decimal
	ItemCount int
	Zip       string
}

// Rate represents a shipping rate option.
type Rate struct {
	ServiceName      string
	ServiceCode      string
	Cost             decimal.Decimal
	EstimatedDaysMin int
	EstimatedDaysMax int
}

// Cheapest returns the lowest-cost rate from provider.
func Cheapest(ctx context.Context, provider Provider, params RateParams) (*Rate, error) {
	rates, err := provider.GetRates(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return nil, ErrNoRatesAvailable
	}

	best := rates[0]
	for _, r := range rates[1:] {
		if r.Cost.LessThan(best.Cost) {
			best = r
		}
	}
	return &best, nil
}
