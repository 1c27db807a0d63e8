package services

import (
	"context"
	"testing"

	"go-marketplace/models"
	"go-marketplace/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seedCatalog(t *testing.T, products ...models.Product) *store.MemoryCatalog {
	t.Helper()
	c := store.NewMemoryCatalog()
	for _, p := range products {
		require.NoError(t, c.Upsert(context.Background(), p))
	}
	return c
}

func product(id, price string, stock int64) models.Product {
	return models.Product{ID: id, Name: id, Price: decimal.RequireFromString(price), Stock: stock}
}

func line(id string, qty int64, price string) models.OrderLineRequest {
	return models.OrderLineRequest{ProductID: id, Quantity: qty, DeclaredPrice: models.NewAmount(price)}
}

func stockOf(t *testing.T, c store.Catalog, id string) int64 {
	t.Helper()
	p, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func newEngine(catalog store.Catalog, opts ...GuardOption) (*PriceGuard, *CartManager, *OrderResolver) {
	guard := NewPriceGuard(catalog, opts...)
	carts := NewCartManager(catalog)
	return guard, carts, NewOrderResolver(catalog, guard, carts)
}
