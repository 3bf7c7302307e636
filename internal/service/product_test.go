package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/greencart/internal/domain"
	"github.com/dukerupert/greencart/internal/memory"
)

var admin = domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

func TestProductService_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(memory.NewStore(), 0)
	seller := uuid.New()

	created, err := svc.UpsertProduct(ctx, admin, uuid.Nil, domain.ProductInput{
		SellerID: seller,
		Name:     "Assam Tea",
		Price:    dec("100"),
		Stock:    5,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)
	assert.Equal(t, seller, got.SellerID)

	updated, err := svc.UpsertProduct(ctx, admin, created.ID, domain.ProductInput{SellerID: seller, Name: "Assam Tea", Price: dec("120"), Stock: 9})
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, dec("120").Equal(updated.Price))

	require.NoError(t, svc.DeleteProduct(ctx, admin, created.ID))
	_, err = svc.GetProduct(ctx, created.ID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(svc.DeleteProduct(ctx, admin, created.ID)))
}

func TestProductService_UpsertValidation(t *testing.T) {
	svc := NewProductService(memory.NewStore(), 0)

	_, err := svc.UpsertProduct(context.Background(), admin, uuid.New(), domain.ProductInput{Price: dec("-1"), Stock: -2})
	require.Error(t, err)
	fields := domain.GetValidationFields(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "stock")
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(memory.NewStore(), 2)

	for _, name := range []string{"Oolong", "Assam", "Matcha"} {
		_, err := svc.UpsertProduct(ctx, admin, uuid.Nil, domain.ProductInput{Name: name, Price: dec("10"), Stock: 1})
		require.NoError(t, err)
	}

	products, page, err := svc.ListProducts(ctx, domain.Page{Number: 1, Limit: 50})
	require.NoError(t, err)
	require.Len(t, products, 2, "limit is clamped")
	assert.Equal(t, "Assam", products[0].Name)
	assert.Equal(t, 3, page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
}

func TestProductService_RequiresCatalogManager(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewProductService(store, 0)

	created, err := svc.UpsertProduct(ctx, admin, uuid.Nil, domain.ProductInput{Name: "Assam Tea", Price: dec("100"), Stock: 5})
	require.NoError(t, err)

	for _, role := range []domain.Role{domain.RoleUser, domain.RoleSeller} {
		t.Run(string(role), func(t *testing.T) {
			actor := domain.Actor{ID: uuid.New(), Role: role}

			_, err := svc.UpsertProduct(ctx, actor, created.ID, domain.ProductInput{Name: "Assam Tea", Price: dec("1"), Stock: 500})
			assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

			err = svc.DeleteProduct(ctx, actor, created.ID)
			assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

			got, err := store.Products().GetProduct(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, got.StockQuantity)
			assert.True(t, dec("100").Equal(got.Price))
		})
	}
}
