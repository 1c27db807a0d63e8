// Package store holds the authoritative catalog, order records and idempotency keys.
package store

import (
	"context"
	"math"

	"go-marketplace/models"

	"github.com/shopspring/decimal"
)

// Catalog is the single source of truth for product prices and stock.
type Catalog interface {
	Get(ctx context.Context, id string) (models.Product, error)
	// List returns a snapshot ordered by barcode.
	List(ctx context.Context) ([]models.Product, error)
	// Upsert replaces the product wholesale.
	Upsert(ctx context.Context, p models.Product) error
	// AdjustStock atomically applies current+delta and returns the resulting product.
	// It fails without mutation when the product is missing or the result would be negative.
	AdjustStock(ctx context.Context, id string, delta int64) (models.Product, error)
	Price(ctx context.Context, id string) (decimal.Decimal, error)
	Remove(ctx context.Context, id string) (bool, error)
}

// checkDelta rejects adjustments whose result cannot be represented. delta == MinInt64 has
// no negation, so it can never be checked against stock.
func checkDelta(id string, stock, delta int64) error {
	if delta == math.MinInt64 || (delta > 0 && stock > math.MaxInt64-delta) {
		return models.InvalidQuantity(id)
	}
	return nil
}

// Seed loads products into an empty catalog. It reports how many products were written.
func Seed(ctx context.Context, c Catalog, products []models.Product) (int, error) {
	existing, err := c.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, p := range products {
		if err := c.Upsert(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(products), nil
}

// DefaultProducts is the starter catalog
func DefaultProducts() []models.Product {
	return []models.Product{
		{ID: "RICE001", Name: "Rice", Price: decimal.RequireFromString("2.50"), Stock: 100},
		{ID: "SALAMI002", Name: "Salami", Price: decimal.RequireFromString("5.00"), Stock: 50},
		{ID: "PRESIDENTE003", Name: "Presidente", Price: decimal.RequireFromString("3.75"), Stock: 75},
	}
}
