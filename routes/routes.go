package routes

import (
	"net/http"

	"go-marketplace/controllers"
	"go-marketplace/middleware"
	"go-marketplace/services"
	"go-marketplace/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers bundles the handlers mounted by RegisterRoutes
type Controllers struct {
	Products *controllers.ProductController
	Carts    *controllers.CartController
	Orders   *controllers.OrderController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, gate *middleware.DefenseKeyGate, guard *services.PriceGuard) {
	router.Use(middleware.WithRequestID, middleware.WithLogging, middleware.Metrics)

	// Public routes
	router.HandleFunc("/", status).Methods("GET")
	router.HandleFunc("/health", health).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	protected := router.PathPrefix("/").Subrouter()
	protected.Use(gate.Middleware)

	// Catalog routes
	protected.HandleFunc("/client/items", c.Products.GetProducts).Methods("GET")
	protected.HandleFunc("/client/items/{barcode}", c.Products.GetProductByID).Methods("GET")

	// Owner routes
	protected.HandleFunc("/owner/update-item", c.Products.UpdateItem).Methods("POST")
	protected.HandleFunc("/owner/items/{barcode}", c.Products.DeleteItem).Methods("DELETE")
	protected.HandleFunc("/owner/items/{barcode}/stock", c.Products.AdjustStock).Methods("POST")

	// Cart routes
	protected.HandleFunc("/cart", c.Carts.GetCart).Methods("GET")
	protected.HandleFunc("/cart", c.Carts.ClearCart).Methods("DELETE")
	protected.HandleFunc("/cart/items", c.Carts.AddToCart).Methods("POST")
	protected.HandleFunc("/cart/items/{barcode}", c.Carts.RemoveFromCart).Methods("DELETE")
	protected.HandleFunc("/cart/checkout", c.Carts.PreviewCheckout).Methods("GET")
	protected.HandleFunc("/cart/checkout", c.Carts.Checkout).Methods("POST")

	// Order routes
	protected.Handle("/client/order", middleware.PriceGuard(guard)(http.HandlerFunc(c.Orders.CreateOrder))).Methods("POST")
	protected.HandleFunc("/orders", c.Orders.GetOrders).Methods("GET")
	protected.HandleFunc("/orders/{id}", c.Orders.GetOrder).Methods("GET")
	protected.HandleFunc("/receipts/verify", c.Orders.VerifyReceipt).Methods("POST")
}

func status(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "Marketplace API is running"})
}

func health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
