package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go-marketplace/models"
	"go-marketplace/store"
	"go-marketplace/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultServiceFeeRate is charged on top of the order subtotal
var DefaultServiceFeeRate = decimal.RequireFromString("0.05")

// OrderResolver turns order requests and carts into committed receipts.
type OrderResolver struct {
	catalog store.Catalog
	guard   *PriceGuard
	carts   *CartManager
	feeRate decimal.Decimal
	log     *slog.Logger

	now   func() time.Time
	newID func() string
}

// ResolverOption customises an OrderResolver
type ResolverOption func(*OrderResolver)

// WithServiceFeeRate sets the fee charged on top of the subtotal
func WithServiceFeeRate(rate decimal.Decimal) ResolverOption {
	return func(r *OrderResolver) { r.feeRate = rate }
}

// NewOrderResolver creates an OrderResolver. carts may be nil when only direct orders are placed.
func NewOrderResolver(catalog store.Catalog, guard *PriceGuard, carts *CartManager, opts ...ResolverOption) *OrderResolver {
	r := &OrderResolver{
		catalog: catalog,
		guard:   guard,
		carts:   carts,
		feeRate: DefaultServiceFeeRate,
		log:     utils.Component("resolver"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type commitLine struct {
	productID string
	quantity  int64
	declared  models.Amount
}

// PlaceOrder commits a direct order. Prices are billed from the catalog at commit time;
// declared prices are only compared, never charged. Either every line commits or none does.
func (r *OrderResolver) PlaceOrder(ctx context.Context, lines []models.OrderLineRequest) (models.OrderReceipt, error) {
	receipt, err := r.placeOrder(ctx, lines)
	if err != nil {
		r.reject(err)
		return models.OrderReceipt{}, err
	}
	ordersCommitted.WithLabelValues("direct").Inc()
	r.log.Info("order_committed", "order_id", receipt.OrderID, "lines", len(receipt.Lines), "total", receipt.Total.String())
	return receipt, nil
}

func (r *OrderResolver) placeOrder(ctx context.Context, lines []models.OrderLineRequest) (models.OrderReceipt, error) {
	if len(lines) == 0 {
		return models.OrderReceipt{}, models.MalformedRequest("order has no items")
	}
	// the boundary interceptor normally ran the guard already; it is not trusted here
	if err := r.guard.Validate(ctx, lines); err != nil {
		return models.OrderReceipt{}, err
	}
	pending := make([]commitLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return models.OrderReceipt{}, models.MalformedRequest("barcode is required")
		}
		if l.Quantity <= 0 {
			return models.OrderReceipt{}, models.InvalidQuantity(l.ProductID)
		}
		pending = append(pending, commitLine{productID: l.ProductID, quantity: l.Quantity, declared: l.DeclaredPrice})
	}
	committed, err := r.commit(ctx, pending)
	if err != nil {
		return models.OrderReceipt{}, err
	}
	return r.receipt(committed), nil
}

// CheckoutCart commits the owner's cart and clears it on success.
func (r *OrderResolver) CheckoutCart(ctx context.Context, owner string) (models.OrderReceipt, error) {
	if r.carts == nil {
		return models.OrderReceipt{}, errors.New("resolver has no cart manager")
	}
	var receipt models.OrderReceipt
	err := r.carts.Checkout(ctx, owner, func(ctx context.Context, resolved []models.ReceiptLine) error {
		pending := make([]commitLine, 0, len(resolved))
		for _, l := range resolved {
			pending = append(pending, commitLine{productID: l.ProductID, quantity: l.Quantity})
		}
		committed, err := r.commit(ctx, pending)
		if err != nil {
			return err
		}
		receipt = r.receipt(committed)
		return nil
	})
	if err != nil {
		r.reject(err)
		return models.OrderReceipt{}, err
	}
	ordersCommitted.WithLabelValues("cart").Inc()
	r.log.Info("cart_checked_out", "owner", owner, "order_id", receipt.OrderID, "total", receipt.Total.String())
	return receipt, nil
}

// commit deducts stock line by line. Each deduction is atomic on its own, so a failure
// restores every earlier deduction of the same request before returning.
func (r *OrderResolver) commit(ctx context.Context, lines []commitLine) ([]models.ReceiptLine, error) {
	done := make([]models.ReceiptLine, 0, len(lines))
	for _, l := range lines {
		if l.quantity <= 0 {
			r.rollback(ctx, done)
			return nil, models.InvalidQuantity(l.productID)
		}
		p, err := r.catalog.AdjustStock(ctx, l.productID, -l.quantity)
		if err != nil {
			r.rollback(ctx, done)
			return nil, err
		}
		done = append(done, models.NewReceiptLine(p, l.quantity))
		// the price may have moved since validation; p is the price at commit time
		if l.declared.Set && l.declared.Valid && !r.guard.Matches(l.declared.Value, p.Price) {
			priceMismatches.Inc()
			r.rollback(ctx, done)
			return nil, models.PriceMismatch(l.productID)
		}
	}
	return done, nil
}

func (r *OrderResolver) rollback(ctx context.Context, done []models.ReceiptLine) {
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		l := done[i]
		if _, err := r.catalog.AdjustStock(ctx, l.ProductID, l.Quantity); err != nil {
			stockRollbacks.WithLabelValues("failed").Inc()
			r.log.Error("stock_rollback_failed", "barcode", l.ProductID, "quantity", l.Quantity, "error", err)
			continue
		}
		stockRollbacks.WithLabelValues("restored").Inc()
	}
}

func (r *OrderResolver) receipt(lines []models.ReceiptLine) models.OrderReceipt {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineSubtotal)
	}
	fee := subtotal.Mul(r.feeRate)
	return models.OrderReceipt{
		OrderID:    r.newID(),
		Lines:      lines,
		Subtotal:   subtotal,
		ServiceFee: fee,
		Total:      subtotal.Add(fee),
		CreatedAt:  r.now().UTC(),
	}
}

func (r *OrderResolver) reject(err error) {
	var derr *models.Error
	if errors.As(err, &derr) {
		ordersRejected.WithLabelValues(string(derr.Code)).Inc()
		return
	}
	ordersRejected.WithLabelValues("internal").Inc()
	r.log.Error("order_failed", "error", err)
}
