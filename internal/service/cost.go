package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/shipping"
	"github.com/dukerupert/greencart/internal/tax"
)

// CostCalculator prices an order from its line items. It is deterministic:
// the same lines always produce the same breakdown.
type CostCalculator struct {
	tax      tax.Calculator
	shipping shipping.Provider
}

// NewCostCalculator creates a calculator from a tax calculator and a
// shipping provider.
func NewCostCalculator(taxCalc tax.Calculator, shippingProvider shipping.Provider) *CostCalculator {
	return &CostCalculator{tax: taxCalc, shipping: shippingProvider}
}

// DefaultCostCalculator applies 18% tax and charges 50 shipping unless the
// subtotal exceeds 500.
func DefaultCostCalculator() *CostCalculator {
	taxCalc, _ := tax.NewPercentageCalculator(tax.DefaultRate)
	provider, _ := shipping.NewThresholdProvider(shipping.DefaultFreeThreshold, shipping.DefaultFlatFee)
	return NewCostCalculator(taxCalc, provider)
}

// Calculate returns subtotal, tax, shipping and discount for items. The
// subtotal uses each line's purchase price. Discount is always zero.
func (c *CostCalculator) Calculate(ctx context.Context, items []domain.OrderItem, zip string) (domain.CostBreakdown, error) {
	const op = "order.cost"

	subtotal := decimal.Zero
	units := 0
	lines := make([]tax.LineItem, len(items))
	for i, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		units += item.Quantity
		lines[i] = tax.LineItem{
			ProductID:   item.ProductID,
			Description: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.PriceAtPurchase,
		}
	}

	rate, err := shipping.Cheapest(ctx, c.shipping, shipping.RateParams{
		Subtotal:  subtotal,
		ItemCount: units,
		Zip:       zip,
	})
	if err != nil {
		return domain.CostBreakdown{}, domain.Internal(err, op, "failed to price shipping")
	}

	taxResult, err := c.tax.CalculateTax(ctx, tax.TaxParams{LineItems: lines, Shipping: rate.Cost})
	if err != nil {
		return domain.CostBreakdown{}, domain.Internal(err, op, "failed to calculate tax")
	}

	return domain.CostBreakdown{
		Subtotal: subtotal,
		Tax:      taxResult.Total,
		Shipping: rate.Cost,
		Discount: decimal.Zero,
	}, nil
}
