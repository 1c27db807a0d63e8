package store

import (
	"context"
	"sort"
	"sync"

	"go-marketplace/models"

	"github.com/shopspring/decimal"
)

type productEntry struct {
	mu      sync.RWMutex
	p       models.Product
	removed bool
}

// MemoryCatalog keeps products in memory. The map lock only guards membership;
// every product carries its own lock for reads and stock adjustments.
type MemoryCatalog struct {
	mu sync.RWMutex
	m  map[string]*productEntry
}

// NewMemoryCatalog creates an empty catalog
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{m: make(map[string]*productEntry)}
}

func (s *MemoryCatalog) entry(id string) (*productEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.m[id]
	return e, ok
}

// Get returns a copy of the product
func (s *MemoryCatalog) Get(_ context.Context, id string) (models.Product, error) {
	e, ok := s.entry(id)
	if !ok {
		return models.Product{}, models.ProductNotFound(id)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.removed {
		return models.Product{}, models.ProductNotFound(id)
	}
	return e.p, nil
}

// List returns a snapshot of every product ordered by barcode
func (s *MemoryCatalog) List(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	entries := make([]*productEntry, 0, len(s.m))
	for _, e := range s.m {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]models.Product, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		if !e.removed {
			out = append(out, e.p)
		}
		e.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Upsert validates the product and replaces any existing entry in place
func (s *MemoryCatalog) Upsert(_ context.Context, p models.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.m[p.ID]; ok {
		// overwrite in place so adjustments already holding the entry see the new state
		e.mu.Lock()
		e.p = p
		e.mu.Unlock()
		return nil
	}
	s.m[p.ID] = &productEntry{p: p}
	return nil
}

// AdjustStock applies delta under the product lock
func (s *MemoryCatalog) AdjustStock(_ context.Context, id string, delta int64) (models.Product, error) {
	e, ok := s.entry(id)
	if !ok {
		return models.Product{}, models.ProductNotFound(id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return models.Product{}, models.ProductNotFound(id)
	}
	if err := checkDelta(id, e.p.Stock, delta); err != nil {
		return models.Product{}, err
	}
	next := e.p.Stock + delta
	if next < 0 {
		return models.Product{}, models.InsufficientStock(id, e.p.Stock)
	}
	e.p.Stock = next
	return e.p, nil
}

// Price returns the current catalog price
func (s *MemoryCatalog) Price(ctx context.Context, id string) (decimal.Decimal, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Price, nil
}

// Remove deletes the product. Adjustments already waiting on its lock fail with not found.
func (s *MemoryCatalog) Remove(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	if !ok {
		return false, nil
	}
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()
	delete(s.m, id)
	return true, nil
}

var _ Catalog = (*MemoryCatalog)(nil)
