package services

import (
	"context"
	"log/slog"
	"sync"

	"go-marketplace/models"
	"go-marketplace/store"
	"go-marketplace/utils"
)

type ownerCart struct {
	mu    sync.Mutex
	lines []models.CartLine
}

func (c *ownerCart) index(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *ownerCart) snapshot(owner string) models.Cart {
	lines := make([]models.CartLine, len(c.lines))
	copy(lines, c.lines)
	return models.Cart{Owner: owner, Lines: lines}
}

// CartManager stages per-owner cart lines. It reads stock to validate requests but never
// changes it; committing a sale is the resolver's job.
type CartManager struct {
	catalog store.Catalog
	log     *slog.Logger

	mu    sync.Mutex
	carts map[string]*ownerCart
}

// NewCartManager creates a CartManager reading stock from catalog
func NewCartManager(catalog store.Catalog) *CartManager {
	return &CartManager{
		catalog: catalog,
		log:     utils.Component("cart"),
		carts:   make(map[string]*ownerCart),
	}
}

func (m *CartManager) cart(owner string) *ownerCart {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[owner]
	if !ok {
		c = &ownerCart{}
		m.carts[owner] = c
	}
	return c
}

// AddItem merges quantity into the owner's cart after checking it against current stock.
func (m *CartManager) AddItem(ctx context.Context, owner, productID string, quantity int64) (models.Cart, error) {
	if quantity <= 0 {
		return models.Cart{}, models.InvalidQuantity(productID)
	}
	c := m.cart(owner)
	c.mu.Lock()
	defer c.mu.Unlock()

	p, err := m.catalog.Get(ctx, productID)
	if err != nil {
		return models.Cart{}, err
	}
	i := c.index(productID)
	var existing int64
	if i >= 0 {
		existing = c.lines[i].Quantity
	}
	if quantity > p.Stock-existing {
		return models.Cart{}, models.InsufficientStock(productID, p.Stock)
	}
	if i >= 0 {
		c.lines[i].Quantity = existing + quantity
	} else {
		c.lines = append(c.lines, models.CartLine{ProductID: productID, Quantity: quantity})
	}
	m.log.Info("cart_item_added", "owner", owner, "barcode", productID, "quantity", existing+quantity)
	return c.snapshot(owner), nil
}

// RemoveItem drops a line and reports whether it was present.
func (m *CartManager) RemoveItem(owner, productID string) bool {
	c := m.cart(owner)
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	m.log.Info("cart_item_removed", "owner", owner, "barcode", productID)
	return true
}

// Clear empties the owner's cart.
func (m *CartManager) Clear(owner string) {
	c := m.cart(owner)
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
	m.log.Info("cart_cleared", "owner", owner)
}

// Get returns a copy of the owner's cart.
func (m *CartManager) Get(owner string) models.Cart {
	c := m.cart(owner)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot(owner)
}

// ResolveForCheckout prices every line at the current catalog price and re-checks it
// against current stock, failing on the first violation in line order.
func (m *CartManager) ResolveForCheckout(ctx context.Context, owner string) ([]models.ReceiptLine, error) {
	c := m.cart(owner)
	c.mu.Lock()
	defer c.mu.Unlock()
	return m.resolve(ctx, c.lines)
}

// Checkout resolves the cart and hands the lines to commit while the cart is held.
// The cart is cleared only when commit succeeds.
func (m *CartManager) Checkout(ctx context.Context, owner string, commit func(context.Context, []models.ReceiptLine) error) error {
	c := m.cart(owner)
	c.mu.Lock()
	defer c.mu.Unlock()

	lines, err := m.resolve(ctx, c.lines)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return models.MalformedRequest("cart is empty")
	}
	if err := commit(ctx, lines); err != nil {
		return err
	}
	c.lines = nil
	return nil
}

func (m *CartManager) resolve(ctx context.Context, lines []models.CartLine) ([]models.ReceiptLine, error) {
	out := make([]models.ReceiptLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, models.InvalidQuantity(l.ProductID)
		}
		p, err := m.catalog.Get(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p.Stock < l.Quantity {
			return nil, models.InsufficientStock(l.ProductID, p.Stock)
		}
		out = append(out, models.NewReceiptLine(p, l.Quantity))
	}
	return out, nil
}
