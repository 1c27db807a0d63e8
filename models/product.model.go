package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product represents a catalog entry keyed by its barcode
type Product struct {
	ID    string          `json:"barcode"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int64           `json:"stock"`
}

// ProductDocument is the stored form of a product. Prices are kept as strings.
type ProductDocument struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Price string `bson:"price"`
	Stock int64  `bson:"stock"`
}

// ParsePrice converts a raw price into a decimal, rejecting negatives and garbage.
func ParsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	return d, nil
}

// ToDocument converts the product to its stored form
func (p Product) ToDocument() ProductDocument {
	return ProductDocument{ID: p.ID, Name: p.Name, Price: p.Price.String(), Stock: p.Stock}
}

// ToProduct parses the stored price. An unparseable price yields an invalid price error.
func (d ProductDocument) ToProduct() (Product, error) {
	price, err := ParsePrice(d.Price)
	if err != nil {
		return Product{}, InvalidPrice(d.ID)
	}
	return Product{ID: d.ID, Name: d.Name, Price: price, Stock: d.Stock}, nil
}

// Validate checks the rules a product must satisfy before it enters the catalog
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return MalformedRequest("barcode is required")
	}
	if p.Price.IsNegative() {
		return InvalidPrice(p.ID)
	}
	if p.Stock < 0 {
		return InvalidQuantity(p.ID)
	}
	return nil
}

// ProductUpdate is the owner-facing upsert payload
type ProductUpdate struct {
	ID         string `json:"barcode"`
	Name       string `json:"name"`
	Price      Amount `json:"price"`
	StockCount int64  `json:"stock_count"`
}

// StockAdjustment is the owner-facing stock adjustment payload
type StockAdjustment struct {
	Delta int64 `json:"delta"`
}
