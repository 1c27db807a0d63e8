package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"go-marketplace/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAddItemMergesLines(t *testing.T) {
	ctx := context.Background()
	carts := NewCartManager(seedCatalog(t, product("RICE001", "2.50", 10), product("SALAMI002", "5.00", 5)))

	_, err := carts.AddItem(ctx, "alice", "RICE001", 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "alice", "SALAMI002", 1)
	require.NoError(t, err)
	cart, err := carts.AddItem(ctx, "alice", "RICE001", 3)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, models.CartLine{ProductID: "RICE001", Quantity: 5}, cart.Lines[0])
	assert.Equal(t, int64(1), cart.Quantity("SALAMI002"))
	assert.Empty(t, carts.Get("bob").Lines, "carts are keyed by owner")
}

func TestCartAddItemRejections(t *testing.T) {
	ctx := context.Background()
	carts := NewCartManager(seedCatalog(t, product("RICE001", "2.50", 4)))

	_, err := carts.AddItem(ctx, "alice", "RICE001", 0)
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)
	_, err = carts.AddItem(ctx, "alice", "RICE001", -2)
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)
	_, err = carts.AddItem(ctx, "alice", "GHOST", 1)
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	assert.Empty(t, carts.Get("alice").Lines)
}

func TestCartAddItemCountsExistingQuantity(t *testing.T) {
	ctx := context.Background()
	carts := NewCartManager(seedCatalog(t, product("RICE001", "2.50", 4)))

	_, err := carts.AddItem(ctx, "alice", "RICE001", 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "alice", "RICE001", 3)
	assert.ErrorIs(t, err, models.InsufficientStock("RICE001", 4))

	assert.Equal(t, int64(2), carts.Get("alice").Quantity("RICE001"))
}

func TestCartRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	carts := NewCartManager(seedCatalog(t, product("a", "1", 10), product("b", "1", 10)))
	_, _ = carts.AddItem(ctx, "alice", "a", 1)
	_, _ = carts.AddItem(ctx, "alice", "b", 1)

	assert.True(t, carts.RemoveItem("alice", "a"))
	assert.False(t, carts.RemoveItem("alice", "a"))
	assert.Equal(t, []models.CartLine{{ProductID: "b", Quantity: 1}}, carts.Get("alice").Lines)

	carts.Clear("alice")
	assert.Empty(t, carts.Get("alice").Lines)
}

func TestCartGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	carts := NewCartManager(seedCatalog(t, product("a", "1", 10)))
	_, _ = carts.AddItem(ctx, "alice", "a", 1)

	cart := carts.Get("alice")
	cart.Lines[0].Quantity = 99
	assert.Equal(t, int64(1), carts.Get("alice").Quantity("a"))
}

func TestResolveForCheckoutUsesCurrentState(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog(t, product("RICE001", "2.50", 10), product("SALAMI002", "5.00", 5))
	carts := NewCartManager(catalog)
	_, _ = carts.AddItem(ctx, "alice", "RICE001", 3)
	_, _ = carts.AddItem(ctx, "alice", "SALAMI002", 2)

	lines, err := carts.ResolveForCheckout(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "7.50", models.Display(lines[0].LineSubtotal))
	assert.Equal(t, "10.00", models.Display(lines[1].LineSubtotal))

	// price changes after add are picked up at resolve time
	require.NoError(t, catalog.Upsert(ctx, product("RICE001", "3.00", 10)))
	lines, err = carts.ResolveForCheckout(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "9.00", models.Display(lines[0].LineSubtotal))

	// stock drops below what is in the cart
	_, err = catalog.AdjustStock(ctx, "SALAMI002", -4)
	require.NoError(t, err)
	_, err = carts.ResolveForCheckout(ctx, "alice")
	assert.ErrorIs(t, err, models.InsufficientStock("SALAMI002", 1))

	// a deleted product is reported as missing
	_, err = catalog.Remove(ctx, "RICE001")
	require.NoError(t, err)
	_, err = carts.ResolveForCheckout(ctx, "alice")
	assert.ErrorIs(t, err, models.ProductNotFound("RICE001"))

	assert.Equal(t, int64(1), stockOf(t, catalog, "SALAMI002"), "resolving never touches stock")
}

func TestCartCheckoutClearsOnlyOnSuccess(t *testing.T) {
	ctx := context.Background()
	carts := NewCartManager(seedCatalog(t, product("a", "1", 10)))
	_, _ = carts.AddItem(ctx, "alice", "a", 2)

	boom := errors.New("boom")
	err := carts.Checkout(ctx, "alice", func(context.Context, []models.ReceiptLine) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(2), carts.Get("alice").Quantity("a"))

	var seen []models.ReceiptLine
	err = carts.Checkout(ctx, "alice", func(_ context.Context, lines []models.ReceiptLine) error {
		seen = lines
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 1)
	assert.Empty(t, carts.Get("alice").Lines)

	err = carts.Checkout(ctx, "alice", func(context.Context, []models.ReceiptLine) error { return nil })
	assert.ErrorIs(t, err, models.ErrMalformedRequest, "empty cart cannot be checked out")
}

func TestCartAddItemRejectsOverflowingQuantity(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog(t, product("RICE001", "2.50", 2))
	_, carts, resolver := newEngine(catalog)

	_, err := carts.AddItem(ctx, "alice", "RICE001", 2)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "alice", "RICE001", math.MaxInt64)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, int64(2), carts.Get("alice").Quantity("RICE001"))

	// another buyer takes the remaining stock
	_, err = resolver.PlaceOrder(ctx, []models.OrderLineRequest{line("RICE001", 2, "2.50")})
	require.NoError(t, err)

	_, err = resolver.CheckoutCart(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, int64(0), stockOf(t, catalog, "RICE001"))
	assert.Equal(t, int64(2), carts.Get("alice").Quantity("RICE001"))
}
