package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCart_Recalculate(t *testing.T) {
	cart := NewCart(uuid.New(), time.Now())
	cart.Items = []CartItem{
		{ProductID: uuid.New(), Quantity: 2, PriceAtAddition: dec("100")},
		{ProductID: uuid.New(), Quantity: 3, PriceAtAddition: dec("19.99")},
	}

	cart.Recalculate()

	assert.True(t, dec("259.97").Equal(cart.TotalPrice), "got %s", cart.TotalPrice)
	assert.Equal(t, 5, cart.ItemCount())
}

func TestCart_FindAndQuantityOf(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	cart := &Cart{Items: []CartItem{{ProductID: a, Quantity: 4}}}

	assert.Equal(t, 0, cart.Find(a))
	assert.Equal(t, -1, cart.Find(b))
	assert.Equal(t, 4, cart.QuantityOf(a))
	assert.Equal(t, 0, cart.QuantityOf(b))
}

func TestCart_CloneIsIndependent(t *testing.T) {
	cart := &Cart{Items: []CartItem{{ProductID: uuid.New(), Quantity: 1}}}
	cp := cart.Clone()
	cp.Items[0].Quantity = 9

	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestValidateCart(t *testing.T) {
	userID := uuid.New()

	t.Run("nil cart yields empty view", func(t *testing.T) {
		view := ValidateCart(nil, nil)
		assert.Empty(t, view.Items)
		assert.True(t, view.TotalPrice.IsZero())
		assert.Equal(t, 0, view.ValidationIssues)
	})

	t.Run("all lines ok", func(t *testing.T) {
		p := &Product{ID: uuid.New(), Name: "Lamp", Price: dec("100"), StockQuantity: 5}
		cart := &Cart{UserID: userID, Items: []CartItem{{ProductID: p.ID, Quantity: 2, PriceAtAddition: dec("100")}}}

		view := ValidateCart(cart, map[uuid.UUID]*Product{p.ID: p})

		require.Len(t, view.Items, 1)
		assert.Equal(t, LineOK, view.Items[0].Status)
		assert.Equal(t, "Lamp", view.Items[0].Name)
		assert.True(t, dec("200").Equal(view.TotalPrice))
		assert.Equal(t, 0, view.ValidationIssues)
		assert.Equal(t, 2, view.ItemCount)
	})

	t.Run("price change uses current price and is not an issue", func(t *testing.T) {
		p := &Product{ID: uuid.New(), Price: dec("120"), StockQuantity: 10}
		cart := &Cart{UserID: userID, Items: []CartItem{{ProductID: p.ID, Quantity: 3, PriceAtAddition: dec("100")}}}

		view := ValidateCart(cart, map[uuid.UUID]*Product{p.ID: p})

		require.Len(t, view.Items, 1)
		assert.Equal(t, LinePriceChanged, view.Items[0].Status)
		assert.True(t, dec("360").Equal(view.Items[0].ItemTotal))
		assert.True(t, dec("360").Equal(view.TotalPrice))
		assert.Equal(t, 0, view.ValidationIssues)
		assert.True(t, dec("100").Equal(cart.Items[0].PriceAtAddition), "cart snapshot must not change")
	})

	t.Run("stock problems are excluded and counted", func(t *testing.T) {
		gone := uuid.New()
		empty := &Product{ID: uuid.New(), Price: dec("10"), StockQuantity: 0}
		short := &Product{ID: uuid.New(), Price: dec("20"), StockQuantity: 1}
		fine := &Product{ID: uuid.New(), Price: dec("5"), StockQuantity: 3}

		cart := &Cart{UserID: userID, Items: []CartItem{
			{ProductID: gone, Quantity: 1, PriceAtAddition: dec("50")},
			{ProductID: empty.ID, Quantity: 1, PriceAtAddition: dec("10")},
			{ProductID: short.ID, Quantity: 2, PriceAtAddition: dec("20")},
			{ProductID: fine.ID, Quantity: 3, PriceAtAddition: dec("5")},
		}}
		products := map[uuid.UUID]*Product{empty.ID: empty, short.ID: short, fine.ID: fine}

		view := ValidateCart(cart, products)

		require.Len(t, view.Items, 4)
		assert.Equal(t, LineProductRemoved, view.Items[0].Status)
		assert.Nil(t, view.Items[0].CurrentPrice)
		assert.Equal(t, LineOutOfStock, view.Items[1].Status)
		assert.Equal(t, LineInsufficientStock, view.Items[2].Status)
		assert.Equal(t, 1, view.Items[2].AvailableStock)
		assert.Equal(t, LineOK, view.Items[3].Status)

		assert.Equal(t, 3, view.ValidationIssues)
		assert.True(t, dec("15").Equal(view.TotalPrice), "only the ok line counts, got %s", view.TotalPrice)
	})

	t.Run("insufficient stock wins over price change", func(t *testing.T) {
		p := &Product{ID: uuid.New(), Price: dec("99"), StockQuantity: 1}
		cart := &Cart{UserID: userID, Items: []CartItem{{ProductID: p.ID, Quantity: 2, PriceAtAddition: dec("50")}}}

		view := ValidateCart(cart, map[uuid.UUID]*Product{p.ID: p})

		assert.Equal(t, LineInsufficientStock, view.Items[0].Status)
		assert.True(t, view.TotalPrice.IsZero())
	})
}

func TestLineStatus_IsIssue(t *testing.T) {
	assert.False(t, LineOK.IsIssue())
	assert.False(t, LinePriceChanged.IsIssue())
	assert.True(t, LineProductRemoved.IsIssue())
	assert.True(t, LineOutOfStock.IsIssue())
	assert.True(t, LineInsufficientStock.IsIssue())
}
