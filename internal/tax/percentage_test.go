package tax_test

import (
	"context"
	"testing"

	"github.com/dukerupert/greencart/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func items(totals ...string) []tax.LineItem {
	out := make([]tax.LineItem, len(totals))
	for i, s := range totals {
		out[i] = tax.LineItem{Quantity: 1, UnitPrice: d(s)}
	}
	return out
}

// Test_PercentageCalculator_CheckoutExample covers a 200.00 subtotal at 18%.
func Test_PercentageCalculator_CheckoutExample(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(tax.DefaultRate)
	require.NoError(t, err)

	params := tax.TaxParams{
		LineItems: []tax.LineItem{{Description: "Lamp", Quantity: 2, UnitPrice: d("100")}},
		Shipping:  d("50"),
	}

	result, err := calc.CalculateTax(context.Background(), params)

	require.NoError(t, err)
	assert.True(t, d("36").Equal(result.Total), "200 * 0.18 = 36, shipping not taxed; got %s", result.Total)
	require.Len(t, result.Breakdown, 1)
	assert.True(t, tax.DefaultRate.Equal(result.Breakdown[0].Rate))
	assert.True(t, result.Total.Equal(result.Breakdown[0].Amount))
}

func Test_PercentageCalculator_RoundingBehavior(t *testing.T) {
	tests := []struct {
		name        string
		rate        string
		subtotal    string
		expected    string
		explanation string
	}{
		{"exact", "0.18", "100", "18", "100 * 0.18 = 18"},
		{"rounds up at midpoint", "0.18", "0.25", "0.05", "0.25 * 0.18 = 0.045, half-up to 0.05"},
		{"rounds down below midpoint", "0.18", "10.01", "1.80", "10.01 * 0.18 = 1.8018"},
		{"rounds up above midpoint", "0.18", "19.99", "3.60", "19.99 * 0.18 = 3.5982"},
		{"zero rate", "0", "999.99", "0", "no tax"},
		{"full rate edge case", "1", "12.34", "12.34", "tax equals subtotal"},
		{"many lines", "0.18", "33.33", "6.00", "33.33 * 0.18 = 5.9994"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc, err := tax.NewPercentageCalculator(d(tt.rate))
			require.NoError(t, err)

			result, err := calc.CalculateTax(context.Background(), tax.TaxParams{LineItems: items(tt.subtotal)})

			require.NoError(t, err)
			assert.True(t, d(tt.expected).Equal(result.Total), "%s: got %s", tt.explanation, result.Total)
		})
	}
}

func Test_PercentageCalculator_WithShipping(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(d("0.10"), tax.WithShipping())
	require.NoError(t, err)

	result, err := calc.CalculateTax(context.Background(), tax.TaxParams{
		LineItems: items("75", "25"),
		Shipping:  d("50"),
	})

	require.NoError(t, err)
	assert.True(t, d("15").Equal(result.Total), "(100 + 50) * 0.10 = 15")
}

func Test_PercentageCalculator_InvalidRate(t *testing.T) {
	for _, rate := range []string{"-0.01", "1.5"} {
		_, err := tax.NewPercentageCalculator(d(rate))
		assert.ErrorIs(t, err, tax.ErrInvalidTaxRate, "rate %s", rate)
	}
}

func Test_PercentageCalculator_NegativeSubtotal(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(tax.DefaultRate)
	require.NoError(t, err)

	_, err = calc.CalculateTax(context.Background(), tax.TaxParams{LineItems: items("-5")})
	assert.ErrorIs(t, err, tax.ErrNegativeAmount)
}

func Test_PercentageCalculator_EmptyLineItems(t *testing.T) {
	calc, err := tax.NewPercentageCalculator(tax.DefaultRate)
	require.NoError(t, err)

	result, err := calc.CalculateTax(context.Background(), tax.TaxParams{})

	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())
}
