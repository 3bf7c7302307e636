package tax

import (
	"context"

	"github.com/shopspring/decimal"
)

// DefaultRate is the flat goods-and-services rate applied at checkout.
var DefaultRate = decimal.RequireFromString("0.18")

// PercentageCalculator calculates tax using a single percentage rate.
type PercentageCalculator struct {
	rate            decimal.Decimal
	includeShipping bool
}

// Option configures a PercentageCalculator.
type Option func(*PercentageCalculator)

// WithShipping taxes shipping along with the line items.
func WithShipping() Option {
	return func(c *PercentageCalculator) { c.includeShipping = true }
}

// NewPercentageCalculator creates a percentage-based tax calculator.
// Rates outside [0, 1] are rejected.
func NewPercentageCalculator(rate decimal.Decimal, opts ...Option) (Calculator, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, ErrInvalidTaxRate
	}
	c := &PercentageCalculator{rate: rate}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CalculateTax applies the rate to the subtotal and rounds half-up to cents.
func (c *PercentageCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	base := params.Subtotal()
	if c.includeShipping {
		base = base.Add(params.Shipping)
	}
	if base.IsNegative() {
		return nil, ErrNegativeAmount
	}

	// decimal.Round rounds half away from zero, which is half-up for base >= 0.
	amount := base.Mul(c.rate).Round(2)

	return &TaxResult{
		Total: amount,
		Breakdown: []TaxBreakdown{
			{Name: "Sales Tax", Rate: c.rate, Amount: amount},
		},
	}, nil
}
