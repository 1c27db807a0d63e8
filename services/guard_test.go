package services

import (
	"context"
	"testing"

	"go-marketplace/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceGuardAcceptsMatchingPrices(t *testing.T) {
	catalog := seedCatalog(t, product("RICE001", "2.50", 10), product("SALAMI002", "5.00", 5))
	g := NewPriceGuard(catalog)

	err := g.Validate(context.Background(), []models.OrderLineRequest{
		line("RICE001", 1, "2.50"),
		line("SALAMI002", 1, "5"),
		line("RICE001", 1, "2.5009"),
	})
	assert.NoError(t, err)
}

func TestPriceGuardRejectsTampering(t *testing.T) {
	catalog := seedCatalog(t, product("RICE001", "2.50", 10), product("SALAMI002", "5.00", 5))
	g := NewPriceGuard(catalog)

	tests := []struct {
		name  string
		lines []models.OrderLineRequest
		id    string
	}{
		{name: "lower price", lines: []models.OrderLineRequest{line("RICE001", 1, "2.40")}, id: "RICE001"},
		{name: "just beyond tolerance", lines: []models.OrderLineRequest{line("RICE001", 1, "2.5011")}, id: "RICE001"},
		{name: "first mismatch aborts", lines: []models.OrderLineRequest{
			line("RICE001", 1, "2.50"),
			line("SALAMI002", 1, "0.01"),
		}, id: "SALAMI002"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Validate(context.Background(), tc.lines)
			assert.ErrorIs(t, err, models.ErrPriceMismatch)
			assert.ErrorIs(t, err, models.PriceMismatch(tc.id))
		})
	}
}

func TestPriceGuardDefersUnknownProducts(t *testing.T) {
	g := NewPriceGuard(seedCatalog(t))
	assert.NoError(t, g.Validate(context.Background(), []models.OrderLineRequest{line("GHOST", 1, "1.00")}))
}

func TestPriceGuardMissingFields(t *testing.T) {
	catalog := seedCatalog(t, product("RICE001", "2.50", 10))
	missingPrice := []models.OrderLineRequest{{ProductID: "RICE001", Quantity: 1}}
	missingID := []models.OrderLineRequest{{Quantity: 1, DeclaredPrice: models.NewAmount("1")}}

	strict := NewPriceGuard(catalog)
	assert.ErrorIs(t, strict.Validate(context.Background(), missingPrice), models.ErrMalformedRequest)
	assert.ErrorIs(t, strict.Validate(context.Background(), missingID), models.ErrMalformedRequest)

	permissive := NewPriceGuard(catalog, WithStrict(false))
	assert.NoError(t, permissive.Validate(context.Background(), missingPrice))
	assert.NoError(t, permissive.Validate(context.Background(), missingID))
}

func TestPriceGuardRejectsUnparseableDeclaredPrice(t *testing.T) {
	catalog := seedCatalog(t, product("RICE001", "2.50", 10))
	g := NewPriceGuard(catalog, WithStrict(false))

	bad := []models.OrderLineRequest{{ProductID: "RICE001", Quantity: 1, DeclaredPrice: models.NewAmount("two")}}
	assert.ErrorIs(t, g.Validate(context.Background(), bad), models.ErrMalformedRequest)
}

func TestPriceGuardReadsLiveCatalog(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog(t, product("RICE001", "2.50", 10))
	g := NewPriceGuard(catalog)
	require.NoError(t, g.Validate(ctx, []models.OrderLineRequest{line("RICE001", 1, "2.50")}))

	require.NoError(t, catalog.Upsert(ctx, product("RICE001", "2.75", 10)))
	assert.ErrorIs(t, g.Validate(ctx, []models.OrderLineRequest{line("RICE001", 1, "2.50")}), models.ErrPriceMismatch)
	assert.NoError(t, g.Validate(ctx, []models.OrderLineRequest{line("RICE001", 1, "2.75")}))
}

func TestPriceGuardCustomTolerance(t *testing.T) {
	catalog := seedCatalog(t, product("RICE001", "2.50", 10))
	g := NewPriceGuard(catalog, WithTolerance(decimal.RequireFromString("0.10")))
	assert.NoError(t, g.Validate(context.Background(), []models.OrderLineRequest{line("RICE001", 1, "2.40")}))
}
