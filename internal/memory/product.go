package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/dukerupert/greencart/internal/domain"
)

type productRepo struct{ a accessor }

func (r productRepo) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var out *domain.Product
	err := r.a.with(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product.get", "product", id.String())
		}
		cp := *p
		out = &cp
		return nil
	})
	return out, err
}

func (r productRepo) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error) {
	out := make(map[uuid.UUID]*domain.Product, len(ids))
	err := r.a.with(ctx, func(st *state) error {
		for _, id := range ids {
			if p, ok := st.products[id]; ok {
				cp := *p
				out[id] = &cp
			}
		}
		return nil
	})
	return out, err
}

func (r productRepo) ListProducts(ctx context.Context, page domain.Page) ([]domain.Product, int, error) {
	var (
		out   []domain.Product
		total int
	)
	err := r.a.with(ctx, func(st *state) error {
		all := make([]domain.Product, 0, len(st.products))
		for _, p := range st.products {
			all = append(all, *p)
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].Name != all[j].Name {
				return all[i].Name < all[j].Name
			}
			return all[i].ID.String() < all[j].ID.String()
		})
		total = len(all)
		out = domain.Paginate(all, page)
		return nil
	})
	return out, total, err
}

func (r productRepo) UpsertProduct(ctx context.Context, p *domain.Product) error {
	return r.a.with(ctx, func(st *state) error {
		if p.StockQuantity < 0 {
			return domain.ErrInvalidStock
		}
		cp := *p
		if existing, ok := st.products[p.ID]; ok && cp.CreatedAt.IsZero() {
			cp.CreatedAt = existing.CreatedAt
		}
		st.products[p.ID] = &cp
		return nil
	})
}

func (r productRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.a.with(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return domain.NotFound("product.delete", "product", id.String())
		}
		delete(st.products, id)
		return nil
	})
}

func (r productRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	return r.a.with(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.NotFound("product.adjust_stock", "product", id.String())
		}
		if p.StockQuantity+delta < 0 {
			return domain.InsufficientStock("product.adjust_stock", p, -delta)
		}
		cp := *p
		cp.StockQuantity += delta
		st.products[id] = &cp
		return nil
	})
}
