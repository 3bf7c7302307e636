package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/greencart/internal/domain"
)

type productService struct {
	store    domain.Store
	maxLimit int
	now      func() time.Time
}

// NewProductService creates a ProductService backed by store.
func NewProductService(store domain.Store, maxLimit int) domain.ProductService {
	if maxLimit <= 0 {
		maxLimit = domain.MaxPageLimit
	}
	return &productService{store: store, maxLimit: maxLimit, now: time.Now}
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	p, err := s.store.Products().GetProduct(ctx, id)
	if err != nil {
		return nil, passThrough(err, "product.get", "failed to load product")
	}
	return p, nil
}

// ListProducts returns one page of the catalog ordered by name.
func (s *productService) ListProducts(ctx context.Context, page domain.Page) ([]domain.Product, domain.Pagination, error) {
	page = domain.NewPage(page.Number, page.Limit, s.maxLimit)

	products, total, err := s.store.Products().ListProducts(ctx, page)
	if err != nil {
		return nil, domain.Pagination{}, passThrough(err, "product.list", "failed to list products")
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, domain.NewPagination(page, total), nil
}

// UpsertProduct creates or replaces a catalog entry. Stock is set to the
// imported level; live sales adjust it through the order engine only.
func (s *productService) UpsertProduct(ctx context.Context, actor domain.Actor, id uuid.UUID, in domain.ProductInput) (*domain.Product, error) {
	const op = "product.upsert"

	if !domain.CanManageCatalog(actor) {
		return nil, domain.Forbidden(op, "Only admins can manage the catalog")
	}

	if err := in.Validate(); err != nil {
		if ve, ok := err.(*domain.ValidationError); ok {
			ve.Op = op
		}
		return nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	now := s.now()
	product := &domain.Product{
		ID:            id,
		SellerID:      in.SellerID,
		Name:          in.Name,
		Price:         in.Price,
		StockQuantity: int(in.Stock),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	existing, err := s.store.Products().GetProduct(ctx, id)
	switch {
	case err == nil:
		product.CreatedAt = existing.CreatedAt
	case !domain.IsCode(err, domain.ENOTFOUND):
		return nil, passThrough(err, op, "failed to load product")
	}

	if err := s.store.Products().UpsertProduct(ctx, product); err != nil {
		return nil, passThrough(err, op, "failed to save product")
	}

	zerolog.Ctx(ctx).Info().
		Str("product_id", product.ID.String()).
		Int("stock", product.StockQuantity).
		Msg("product upserted")
	return product, nil
}

// DeleteProduct removes a product from the catalog. Carts still holding it
// report the line as removed; past orders keep their snapshot.
func (s *productService) DeleteProduct(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	const op = "product.delete"

	if !domain.CanManageCatalog(actor) {
		return domain.Forbidden(op, "Only admins can manage the catalog")
	}
	if err := s.store.Products().DeleteProduct(ctx, id); err != nil {
		return passThrough(err, op, "failed to delete product")
	}
	zerolog.Ctx(ctx).Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}
