package address_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/greencart/internal/address"
	"github.com/dukerupert/greencart/internal/domain"
)

func validAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Name:   "Asha Rao",
		Phone:  "+91 98765 43210",
		Street: "12 MG Road",
		City:   "Bengaluru",
		State:  "KA",
		Zip:    "560001",
	}
}

func TestBasicValidator_Valid(t *testing.T) {
	v := address.NewBasicValidator()

	addr := validAddress()
	addr.City = "  Bengaluru  "
	addr.Zip = "sw1a 1aa"

	result, err := v.Validate(context.Background(), addr)

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "Bengaluru", result.NormalizedAddress.City)
	assert.Equal(t, "SW1A 1AA", result.NormalizedAddress.Zip)
	assert.NoError(t, result.AsDomainError("order.create"))
}

func TestBasicValidator_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *domain.ShippingAddress)
		field  string
	}{
		{"missing name", func(a *domain.ShippingAddress) { a.Name = "" }, "name"},
		{"missing phone", func(a *domain.ShippingAddress) { a.Phone = "" }, "phone"},
		{"missing street", func(a *domain.ShippingAddress) { a.Street = "   " }, "street"},
		{"missing city", func(a *domain.ShippingAddress) { a.City = "" }, "city"},
		{"missing zip", func(a *domain.ShippingAddress) { a.Zip = "" }, "zip"},
		{"bad zip", func(a *domain.ShippingAddress) { a.Zip = "#!" }, "zip"},
		{"bad phone", func(a *domain.ShippingAddress) { a.Phone = "call me" }, "phone"},
	}

	v := address.NewBasicValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := validAddress()
			tt.mutate(&addr)

			result, err := v.Validate(context.Background(), addr)

			require.NoError(t, err)
			assert.False(t, result.IsValid)
			require.NotEmpty(t, result.Errors)
			assert.Equal(t, tt.field, result.Errors[0].Field)

			derr := result.AsDomainError("order.create")
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(derr))
			assert.Contains(t, domain.GetValidationFields(derr), tt.field)
		})
	}
}

func TestBasicValidator_ReportsEveryMissingField(t *testing.T) {
	v := address.NewBasicValidator()

	result, err := v.Validate(context.Background(), domain.ShippingAddress{})

	require.NoError(t, err)
	fields := domain.GetValidationFields(result.AsDomainError("order.create"))
	for _, f := range []string{"name", "phone", "street", "city", "zip"} {
		assert.Contains(t, fields, f)
	}
	assert.NotContains(t, fields, "state")
}
