// Package services implements the order integrity and inventory consistency engine.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go-marketplace/models"
	"go-marketplace/store"
	"go-marketplace/utils"

	"github.com/shopspring/decimal"
)

// DefaultTolerance absorbs rounding in client-side price handling, not real price drift.
var DefaultTolerance = decimal.RequireFromString("0.001")

// PriceGuard rejects order submissions whose declared prices diverge from the catalog.
type PriceGuard struct {
	catalog   store.Catalog
	tolerance decimal.Decimal
	strict    bool
	log       *slog.Logger
}

// GuardOption customises a PriceGuard
type GuardOption func(*PriceGuard)

// WithTolerance overrides the allowed absolute difference.
func WithTolerance(tol decimal.Decimal) GuardOption {
	return func(g *PriceGuard) { g.tolerance = tol }
}

// WithStrict controls whether lines missing a barcode or price are rejected (true) or
// left for the resolver (false).
func WithStrict(strict bool) GuardOption {
	return func(g *PriceGuard) { g.strict = strict }
}

// NewPriceGuard creates a fail-closed guard reading from the given catalog
func NewPriceGuard(catalog store.Catalog, opts ...GuardOption) *PriceGuard {
	g := &PriceGuard{
		catalog:   catalog,
		tolerance: DefaultTolerance,
		strict:    true,
		log:       utils.Component("price_guard"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Matches reports whether a declared price is within tolerance of the authoritative one.
func (g *PriceGuard) Matches(declared, actual decimal.Decimal) bool {
	return declared.Sub(actual).Abs().LessThanOrEqual(g.tolerance)
}

// Validate checks every line against the live catalog. The first mismatch aborts the
// whole request. Unknown products pass; the resolver reports them.
func (g *PriceGuard) Validate(ctx context.Context, lines []models.OrderLineRequest) error {
	for i, line := range lines {
		if line.ProductID == "" || !line.DeclaredPrice.Set {
			if g.strict {
				return models.MalformedRequest(fmt.Sprintf("item %d needs barcode and price", i))
			}
			g.log.Warn("guard_skipped_line", "index", i, "barcode", line.ProductID)
			continue
		}
		if !line.DeclaredPrice.Valid {
			return models.MalformedRequest("price for " + line.ProductID + " is not a non-negative number")
		}

		actual, err := g.catalog.Price(ctx, line.ProductID)
		if errors.Is(err, models.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if !g.Matches(line.DeclaredPrice.Value, actual) {
			priceMismatches.Inc()
			g.log.Warn("price_mismatch",
				"barcode", line.ProductID,
				"declared", line.DeclaredPrice.Value.String(),
				"actual", actual.String(),
			)
			return models.PriceMismatch(line.ProductID)
		}
	}
	return nil
}
