package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocklane/stocklane/internal/domain/product"
	"github.com/stocklane/stocklane/internal/observability"
)

// ProductsRepo is the products collection, owner-scoped: every read and
// write filters by the owner's id.
type ProductsRepo struct {
	col *Collection[product.Product]
}

func NewProductsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{
		col: NewCollection[product.Product](pool, "products", true, prom),
	}
}

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (product.Product, error) {
	return r.col.Insert(ctx, p.ID, p.OwnerID, p)
}

func (r *ProductsRepo) GetByID(ctx context.Context, id, owner string) (product.Product, error) {
	return r.col.Get(ctx, id, owner)
}

func (r *ProductsRepo) ListByOwner(ctx context.Context, owner string) ([]product.Product, error) {
	return r.col.List(ctx, owner)
}

func (r *ProductsRepo) Update(ctx context.Context, id, owner string, req product.UpdateProductRequest) (product.Product, error) {
	patch, err := req.Patch()

	if err != nil {
		return product.Product{}, err
	}

	return r.col.Update(ctx, id, owner, patch)
}

func (r *ProductsRepo) Delete(ctx context.Context, id, owner string) error {
	return r.col.Delete(ctx, id, owner)
}
