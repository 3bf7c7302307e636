package tax

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, NoTaxCalculator
type Calculator interface {
	// CalculateTax computes tax for order line items.
	// The amount is rounded to two decimal places.
	CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error)
}

// TaxParams contains all information needed for tax calculation.
type TaxParams struct {
	LineItems []LineItem

	// Shipping is only taxed by calculators configured to include it.
	Shipping decimal.Decimal
}

// Subtotal sums the line totals.
func (p TaxParams) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range p.LineItems {
		sum = sum.Add(li.Total())
	}
	return sum
}

// LineItem represents a single item being taxed.
type LineItem struct {
	ProductID   uuid.UUID
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Total returns quantity times unit price.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// TaxResult contains the calculated tax amount and breakdown.
type TaxResult struct {
	Total     decimal.Decimal
	Breakdown []TaxBreakdown
}

// TaxBreakdown represents tax for a single rate component.
type TaxBreakdown struct {
	Name   string
	Rate   decimal.Decimal // e.g. 0.18 for 18%
	Amount decimal.Decimal
}
