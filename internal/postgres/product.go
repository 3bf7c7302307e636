package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dukerupert/greencart/internal/domain"
)

const productColumns = `id, seller_id, name, price, stock_quantity, created_at, updated_at`

type productRepo struct{ s *Store }

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p      domain.Product
		seller *uuid.UUID
	)
	if err := row.Scan(&p.ID, &seller, &p.Name, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if seller != nil {
		p.SellerID = *seller
	}
	return &p, nil
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func (r productRepo) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := scanProduct(r.s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NotFound("product.get", "product", id.String())
	}
	if err != nil {
		return nil, mapError(err, "product.get")
	}
	return p, nil
}

func (r productRepo) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.s.db.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, mapError(err, "product.get_many")
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, mapError(err, "product.get_many")
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "product.get_many")
	}
	return out, nil
}

func (r productRepo) ListProducts(ctx context.Context, page domain.Page) ([]domain.Product, int, error) {
	const op = "product.list"

	var total int
	if err := r.s.db.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, mapError(err, op)
	}

	rows, err := r.s.db.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name, id LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, mapError(err, op)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, mapError(err, op)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, op)
	}
	return products, total, nil
}

func (r productRepo) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if p.StockQuantity < 0 {
		return domain.ErrInvalidStock
	}
	_, err := r.s.db.Exec(ctx, `
		INSERT INTO products (id, seller_id, name, price, stock_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			seller_id = EXCLUDED.seller_id,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			updated_at = EXCLUDED.updated_at`,
		p.ID, nullableUUID(p.SellerID), p.Name, p.Price, p.StockQuantity, p.CreatedAt, p.UpdatedAt)
	return mapError(err, "product.upsert")
}

func (r productRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := r.s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "product.delete")
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("product.delete", "product", id.String())
	}
	return nil
}

// AdjustStock applies delta in a single conditional UPDATE. Concurrent
// decrements serialize on the row lock, and the loser sees the winner's
// result in its WHERE check.
func (r productRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	const op = "product.adjust_stock"

	var stock int
	err := r.s.db.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1 AND stock_quantity + $2 >= 0
		RETURNING stock_quantity`, id, delta).Scan(&stock)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return mapError(err, op)
	}

	// No row updated: either the product is gone or stock is short.
	p, err := r.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	return domain.InsufficientStock(op, p, -delta)
}
