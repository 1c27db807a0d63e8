package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/store"
	"go-marketplace/utils"

	"github.com/gorilla/mux"
)

const (
	// IdempotencyKeyHeader lets a client retry an order submission safely
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response that returns an earlier receipt
	ReplayedHeader = "Idempotent-Replayed"
)

// OrderController handles order-related requests
type OrderController struct {
	Resolver    *services.OrderResolver
	Orders      store.OrderRepository
	Idempotency store.IdempotencyStore
	Signer      *utils.ReceiptSigner
	Notifier    utils.Notifier

	log *slog.Logger
}

// NewOrderController creates a new OrderController. idempotency and signer may be nil.
func NewOrderController(resolver *services.OrderResolver, orders store.OrderRepository, idempotency store.IdempotencyStore, signer *utils.ReceiptSigner, notifier utils.Notifier) *OrderController {
	if notifier == nil {
		notifier = utils.NopNotifier{}
	}
	return &OrderController{
		Resolver:    resolver,
		Orders:      orders,
		Idempotency: idempotency,
		Signer:      signer,
		Notifier:    notifier,
		log:         utils.Component("orders"),
	}
}

type orderResponse struct {
	models.OrderReceipt
	ReceiptToken string
}

func (o orderResponse) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(o.OrderReceipt)
	if err != nil || o.ReceiptToken == "" {
		return b, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	token, _ := json.Marshal(o.ReceiptToken)
	fields["receipt_token"] = token
	return json.Marshal(fields)
}

// CreateOrder commits a direct order. Declared prices were already checked by the price
// guard middleware; the resolver checks them again at commit time.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	oc.submit(w, r, "order", func() (models.OrderReceipt, error) {
		return oc.Resolver.PlaceOrder(r.Context(), req.Items)
	})
}

// submit runs place under the request's idempotency key, then records, signs and
// announces the committed receipt. A retry of a committed submission gets the recorded
// receipt back.
func (oc *OrderController) submit(w http.ResponseWriter, r *http.Request, scope string, place func() (models.OrderReceipt, error)) {
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if oc.Idempotency == nil {
		key = ""
	}
	if key != "" {
		claimed, err := oc.Idempotency.TryLock(r.Context(), scope, key)
		if err != nil {
			utils.WriteError(w, r, err)
			return
		}
		if !claimed {
			oc.replay(w, r, scope, key)
			return
		}
	}

	receipt, err := place()
	if err != nil {
		if key != "" {
			if rerr := oc.Idempotency.Release(context.WithoutCancel(r.Context()), scope, key); rerr != nil {
				oc.log.Warn("idempotency_release_failed", "key", key, "error", rerr)
			}
		}
		utils.WriteError(w, r, err)
		return
	}

	// stock is already committed; a failed save must not turn the sale into an error
	ctx := context.WithoutCancel(r.Context())
	if err := oc.Orders.Save(ctx, receipt); err != nil {
		oc.log.Error("order_save_failed", "order_id", receipt.OrderID, "error", err)
	} else if key != "" {
		if err := oc.Idempotency.Complete(ctx, scope, key, receipt.OrderID); err != nil {
			oc.log.Warn("idempotency_complete_failed", "key", key, "order_id", receipt.OrderID, "error", err)
		}
	}

	go func() {
		if err := oc.Notifier.SendOrderConfirmation(receipt); err != nil {
			oc.log.Error("order_notification_failed", "order_id", receipt.OrderID, "error", err)
		}
	}()

	oc.writeReceipt(w, receipt)
}

// replay answers a repeated submission with the receipt recorded under its key. While the
// first attempt is still in flight there is nothing to return yet.
func (oc *OrderController) replay(w http.ResponseWriter, r *http.Request, scope, key string) {
	orderID, err := oc.Idempotency.Lookup(r.Context(), scope, key)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if orderID == "" {
		utils.WriteJSONError(w, http.StatusConflict, "duplicate_submission", "an order with this idempotency key is being processed")
		return
	}
	receipt, err := oc.Orders.Get(r.Context(), orderID)
	if errors.Is(err, store.ErrOrderNotFound) {
		utils.WriteJSONError(w, http.StatusConflict, "duplicate_submission", "an order with this idempotency key was already submitted")
		return
	}
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	w.Header().Set(ReplayedHeader, "true")
	oc.writeReceipt(w, receipt)
}

func (oc *OrderController) writeReceipt(w http.ResponseWriter, receipt models.OrderReceipt) {
	resp := orderResponse{OrderReceipt: receipt}
	if oc.Signer.Enabled() {
		token, err := oc.Signer.Sign(receipt)
		if err != nil {
			oc.log.Error("receipt_sign_failed", "order_id", receipt.OrderID, "error", err)
		}
		resp.ReceiptToken = token
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// GetOrders lists recorded receipts, newest first
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := oc.Orders.List(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if orders == nil {
		orders = []models.OrderReceipt{}
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GetOrder retrieves one recorded receipt
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	receipt, err := oc.Orders.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrOrderNotFound) {
		utils.WriteJSONError(w, http.StatusNotFound, "order_not_found", "")
		return
	}
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, receipt)
}

type verifyRequest struct {
	Token string `json:"receipt_token"`
}

type verifyResponse struct {
	Valid    bool   `json:"valid"`
	OrderID  string `json:"order_id"`
	Total    string `json:"total_to_pay"`
	Items    int    `json:"items"`
	Recorded bool   `json:"recorded"`
}

// VerifyReceipt checks that a receipt token was issued by this service and that it
// agrees with the recorded order when one exists.
func (oc *OrderController) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	if !oc.Signer.Enabled() {
		utils.WriteJSONError(w, http.StatusNotImplemented, "receipts_disabled", "")
		return
	}
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	claims, err := oc.Signer.Verify(req.Token)
	if err != nil {
		utils.WriteJSONError(w, http.StatusForbidden, "invalid_receipt", err.Error())
		return
	}

	resp := verifyResponse{Valid: true, OrderID: claims.OrderID, Items: claims.Items}
	resp.Total = claims.Total
	receipt, err := oc.Orders.Get(r.Context(), claims.OrderID)
	switch {
	case errors.Is(err, store.ErrOrderNotFound):
	case err != nil:
		utils.WriteError(w, r, err)
		return
	default:
		resp.Recorded = true
		if receipt.Total.String() != claims.Total || len(receipt.Lines) != claims.Items {
			utils.WriteJSONError(w, http.StatusForbidden, "invalid_receipt", "receipt does not match the recorded order")
			return
		}
	}
	if d, err := models.ParsePrice(claims.Total); err == nil {
		resp.Total = models.Display(d)
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
