package controllers

import (
	"net/http"
	"strings"

	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

const (
	// UserIDHeader names the cart owner
	UserIDHeader = "X-User-Id"
	DefaultUser  = "default_user"
)

// CartController handles cart-related requests
type CartController struct {
	Carts    *services.CartManager
	Resolver *services.OrderResolver
	Orders   *OrderController
}

// NewCartController creates a new CartController. Committed carts are recorded through
// the order controller so they share persistence and notification.
func NewCartController(carts *services.CartManager, resolver *services.OrderResolver, orders *OrderController) *CartController {
	return &CartController{Carts: carts, Resolver: resolver, Orders: orders}
}

func cartOwner(r *http.Request) string {
	if owner := strings.TrimSpace(r.Header.Get(UserIDHeader)); owner != "" {
		return owner
	}
	return DefaultUser
}

// GetCart returns the caller's cart
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, cc.Carts.Get(cartOwner(r)))
}

// AddToCart adds a quantity of a product to the caller's cart
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req models.AddToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		utils.WriteError(w, r, models.MalformedRequest("barcode is required"))
		return
	}

	cart, err := cc.Carts.AddItem(r.Context(), cartOwner(r), req.ProductID, req.Quantity)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, cart)
}

// RemoveFromCart drops one product line from the caller's cart
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["barcode"]
	owner := cartOwner(r)
	if !cc.Carts.RemoveItem(owner, id) {
		utils.WriteError(w, r, models.ProductNotFound(id))
		return
	}
	utils.WriteJSON(w, http.StatusOK, cc.Carts.Get(owner))
}

// ClearCart empties the caller's cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner := cartOwner(r)
	cc.Carts.Clear(owner)
	utils.WriteJSON(w, http.StatusOK, cc.Carts.Get(owner))
}

type checkoutPreview struct {
	Owner    string               `json:"user_id"`
	Items    []models.ReceiptLine `json:"items"`
	Subtotal string               `json:"subtotal"`
}

// PreviewCheckout resolves the cart against current stock and prices without committing
func (cc *CartController) PreviewCheckout(w http.ResponseWriter, r *http.Request) {
	owner := cartOwner(r)
	lines, err := cc.Carts.ResolveForCheckout(r.Context(), owner)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineSubtotal)
	}
	utils.WriteJSON(w, http.StatusOK, checkoutPreview{
		Owner:    owner,
		Items:    lines,
		Subtotal: models.Display(subtotal),
	})
}

// Checkout commits the caller's cart as an order
func (cc *CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	owner := cartOwner(r)
	cc.Orders.submit(w, r, "cart:"+owner, func() (models.OrderReceipt, error) {
		return cc.Resolver.CheckoutCart(r.Context(), owner)
	})
}
