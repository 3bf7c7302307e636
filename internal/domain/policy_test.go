package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrderPolicy(t *testing.T) {
	owner := uuid.New()
	seller := uuid.New()
	order := &Order{
		UserID: owner,
		Items:  []OrderItem{{ProductID: uuid.New(), SellerID: seller, Quantity: 1}},
	}

	tests := []struct {
		name  string
		actor Actor
		want  OrderPermissions
	}{
		{"owner", Actor{ID: owner, Role: RoleUser}, OrderPermissions{View: true, Cancel: true}},
		{"other user", Actor{ID: uuid.New(), Role: RoleUser}, OrderPermissions{}},
		{"seller of a line", Actor{ID: seller, Role: RoleSeller}, OrderPermissions{View: true, Cancel: true, UpdateStatus: true}},
		{"unrelated seller", Actor{ID: uuid.New(), Role: RoleSeller}, OrderPermissions{}},
		{"admin", Actor{ID: uuid.New(), Role: RoleAdmin}, OrderPermissions{View: true, Cancel: true, UpdateStatus: true}},
		{"unknown role", Actor{ID: owner, Role: Role("guest")}, OrderPermissions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderPolicy(tt.actor, order))
		})
	}
}

func TestScopeOrderFilter(t *testing.T) {
	requested := OrderFilter{UserID: uuid.New(), Status: StatusPending}

	t.Run("user sees only own orders", func(t *testing.T) {
		actor := Actor{ID: uuid.New(), Role: RoleUser}
		got := ScopeOrderFilter(actor, requested)
		assert.Equal(t, actor.ID, got.UserID)
		assert.Equal(t, uuid.Nil, got.SellerID)
		assert.Equal(t, StatusPending, got.Status)
	})

	t.Run("seller scoped to own products", func(t *testing.T) {
		actor := Actor{ID: uuid.New(), Role: RoleSeller}
		got := ScopeOrderFilter(actor, requested)
		assert.Equal(t, actor.ID, got.SellerID)
		assert.Equal(t, requested.UserID, got.UserID)
	})

	t.Run("admin filter untouched", func(t *testing.T) {
		got := ScopeOrderFilter(Actor{ID: uuid.New(), Role: RoleAdmin}, requested)
		assert.Equal(t, requested, got)
	})
}

func TestCanManageCatalog(t *testing.T) {
	assert.True(t, CanManageCatalog(Actor{Role: RoleAdmin}))
	assert.False(t, CanManageCatalog(Actor{Role: RoleSeller}))
	assert.False(t, CanManageCatalog(Actor{Role: RoleUser}))
}
