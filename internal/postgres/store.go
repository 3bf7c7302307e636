// Package postgres implements the domain store interfaces on PostgreSQL
// using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/greencart/internal/domain"
)

// SQLSTATE codes handled specially.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store is a domain.Store backed by a connection pool, or by one open
// transaction when returned from InTx.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
	tx   pgx.Tx
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Store on pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// Connect opens a pool and verifies the database is reachable.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

func (s *Store) Products() domain.ProductRepository { return productRepo{s} }
func (s *Store) Carts() domain.CartRepository       { return cartRepo{s} }
func (s *Store) Orders() domain.OrderRepository     { return orderRepo{s} }
func (s *Store) Users() domain.UserRepository       { return userRepo{s} }

// InTx runs fn in a READ COMMITTED transaction. Stock decrements are
// conditional updates and orders are locked with SELECT ... FOR UPDATE, so
// the stronger isolation levels are not needed. A nested call joins the
// open transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError(err, "store.begin")
	}
	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(&Store{pool: s.pool, db: tx, tx: tx}); err != nil {
		return mapError(err, "store.tx")
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "store.commit")
	}
	return nil
}

// atomic runs fn in the open transaction or in a new one.
func (s *Store) atomic(ctx context.Context, fn func(db DBTX) error) error {
	if s.tx != nil {
		return fn(s.db)
	}
	return s.InTx(ctx, func(tx domain.Store) error {
		return fn(tx.(*Store).db)
	})
}

// mapError converts driver errors into coded domain errors. Errors that are
// already coded pass through.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	var se *domain.StockError
	var ve *domain.ValidationError
	if errors.As(err, &de) || errors.As(err, &se) || errors.As(err, &ve) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected:
			return domain.Aborted(err, op)
		case codeUniqueViolation:
			return domain.WrapError(err, domain.ECONFLICT, op, "Record already exists")
		case codeCheckViolation:
			return domain.WrapError(err, domain.EINVALID, op, "Value violates a constraint")
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Aborted(err, op)
	}
	return domain.Internal(err, op, "database error")
}
