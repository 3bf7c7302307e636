package domain

import "github.com/google/uuid"

// Role is the caller's authorization class.
type Role string

const (
	RoleUser   Role = "user"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleSeller || r == RoleAdmin
}

// Actor is an authenticated caller. Authentication happens upstream.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// SystemActorID identifies changes made by background jobs.
var SystemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// SystemActor is the admin-scoped actor used by background jobs.
func SystemActor() Actor {
	return Actor{ID: SystemActorID, Role: RoleAdmin}
}

// OrderPermissions lists what an actor may do with one order.
type OrderPermissions struct {
	View         bool
	Cancel       bool
	UpdateStatus bool
}

// OrderPolicy decides what actor may do with order. Users act on their own
// orders, sellers on orders containing one of their products, admins on all.
// Status checks are not part of the policy.
func OrderPolicy(actor Actor, order *Order) OrderPermissions {
	switch actor.Role {
	case RoleAdmin:
		return OrderPermissions{View: true, Cancel: true, UpdateStatus: true}
	case RoleSeller:
		if order.HasSeller(actor.ID) {
			return OrderPermissions{View: true, Cancel: true, UpdateStatus: true}
		}
	case RoleUser:
		if order.UserID == actor.ID {
			return OrderPermissions{View: true, Cancel: true}
		}
	}
	return OrderPermissions{}
}

// ScopeOrderFilter restricts filter to the orders actor may see. A user
// filter supplied by a non-admin is overridden or ignored.
func ScopeOrderFilter(actor Actor, filter OrderFilter) OrderFilter {
	switch actor.Role {
	case RoleAdmin:
	case RoleSeller:
		filter.SellerID = actor.ID
	default:
		filter.UserID = actor.ID
		filter.SellerID = uuid.Nil
	}
	return filter
}

// CanManageCatalog reports whether actor may create or edit products.
func CanManageCatalog(actor Actor) bool {
	return actor.Role == RoleAdmin
}
