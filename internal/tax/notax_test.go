package tax_test

import (
	"context"
	"testing"

	"github.com/dukerupert/greencart/internal/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoTaxCalculator_CalculateTax_ReturnsZeroTax(t *testing.T) {
	calc := tax.NewNoTaxCalculator()

	result, err := calc.CalculateTax(context.Background(), tax.TaxParams{
		LineItems: items("18.00", "22.00"),
		Shipping:  d("5"),
	})

	require.NoError(t, err)
	assert.True(t, result.Total.IsZero(), "NoTaxCalculator should always return zero tax")
	assert.Empty(t, result.Breakdown)
}

func TestMockCalculator_Delegates(t *testing.T) {
	mock := tax.NewMockCalculator()

	result, err := mock.CalculateTax(context.Background(), tax.TaxParams{})
	require.NoError(t, err)
	assert.True(t, result.Total.IsZero())

	mock.CalculateTaxFunc = func(ctx context.Context, params tax.TaxParams) (*tax.TaxResult, error) {
		return nil, tax.ErrNegativeAmount
	}
	_, err = mock.CalculateTax(context.Background(), tax.TaxParams{})
	assert.ErrorIs(t, err, tax.ErrNegativeAmount)
}
