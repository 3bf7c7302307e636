// Package memory implements the domain store interfaces in process memory.
//
// Every operation is serialized by a single mutex. Transactions run against
// a private copy of the data that replaces the shared copy only when the
// transaction function succeeds, so a failed transaction leaves nothing
// behind.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dukerupert/greencart/internal/domain"
)

type state struct {
	products map[uuid.UUID]*domain.Product
	carts    map[uuid.UUID]*domain.Cart
	orders   map[uuid.UUID]*domain.Order
	users    map[uuid.UUID]*domain.UserSummary
}

func newState() *state {
	return &state{
		products: make(map[uuid.UUID]*domain.Product),
		carts:    make(map[uuid.UUID]*domain.Cart),
		orders:   make(map[uuid.UUID]*domain.Order),
		users:    make(map[uuid.UUID]*domain.UserSummary),
	}
}

// clone copies the maps. Values are replaced, never mutated in place, so
// sharing the pointed-to records between copies is safe.
func (s *state) clone() *state {
	cp := newState()
	for k, v := range s.products {
		cp.products[k] = v
	}
	for k, v := range s.carts {
		cp.carts[k] = v
	}
	for k, v := range s.orders {
		cp.orders[k] = v
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	return cp
}

// accessor runs fn with exclusive access to a state.
type accessor interface {
	with(ctx context.Context, fn func(st *state) error) error
}

// Store is an in-memory domain.Store.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) with(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) Products() domain.ProductRepository { return productRepo{s} }
func (s *Store) Carts() domain.CartRepository       { return cartRepo{s} }
func (s *Store) Orders() domain.OrderRepository     { return orderRepo{s} }
func (s *Store) Users() domain.UserRepository       { return userRepo{s} }

// InTx runs fn on a private copy of the data and publishes the copy only if
// fn returns nil. fn must use tx, not s, or it will deadlock.
func (s *Store) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txStore{st: s.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.st
	return nil
}

// AddUser registers a user in the identity directory.
func (s *Store) AddUser(u domain.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[u.ID] = &u
}

type txStore struct {
	st *state
}

func (t *txStore) with(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t.st)
}

func (t *txStore) Products() domain.ProductRepository { return productRepo{t} }
func (t *txStore) Carts() domain.CartRepository       { return cartRepo{t} }
func (t *txStore) Orders() domain.OrderRepository     { return orderRepo{t} }
func (t *txStore) Users() domain.UserRepository       { return userRepo{t} }

// InTx joins the open transaction.
func (t *txStore) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return fn(t)
}

type userRepo struct{ a accessor }

func (r userRepo) GetUser(ctx context.Context, id uuid.UUID) (*domain.UserSummary, error) {
	var out *domain.UserSummary
	err := r.a.with(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.NotFound("user.get", "user", id.String())
		}
		cp := *u
		out = &cp
		return nil
	})
	return out, err
}
