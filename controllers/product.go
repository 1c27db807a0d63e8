package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"go-marketplace/models"
	"go-marketplace/store"
	"go-marketplace/utils"

	"github.com/gorilla/mux"
)

// ProductController handles catalog requests from clients and the shop owner
type ProductController struct {
	Catalog store.Catalog
}

// NewProductController creates a new ProductController
func NewProductController(catalog store.Catalog) *ProductController {
	return &ProductController{Catalog: catalog}
}

// GetProducts lists the whole catalog
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := pc.Catalog.List(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves one product by barcode
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	product, err := pc.Catalog.Get(r.Context(), mux.Vars(r)["barcode"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

// UpdateItem creates a product or replaces it wholesale (owner only)
func (pc *ProductController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req models.ProductUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	product, err := productFromUpdate(req)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if err := pc.Catalog.Upsert(r.Context(), product); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("Product %s updated successfully", product.ID),
		"product": product,
	})
}

func productFromUpdate(req models.ProductUpdate) (models.Product, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return models.Product{}, models.MalformedRequest("barcode is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return models.Product{}, models.MalformedRequest("name is required")
	}
	if !req.Price.Set {
		return models.Product{}, models.MalformedRequest("price is required")
	}
	if !req.Price.Valid {
		return models.Product{}, models.InvalidPrice(id)
	}
	return models.Product{ID: id, Name: req.Name, Price: req.Price.Value, Stock: req.StockCount}, nil
}

// DeleteItem removes a product (owner only)
func (pc *ProductController) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["barcode"]
	removed, err := pc.Catalog.Remove(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	if !removed {
		utils.WriteError(w, r, models.ProductNotFound(id))
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Product %s removed", id),
	})
}

// AdjustStock adds a signed delta to a product's stock (owner only)
func (pc *ProductController) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["barcode"]
	var req models.StockAdjustment
	if err := decodeJSON(w, r, &req); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	product, err := pc.Catalog.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}
