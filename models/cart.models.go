package models

// CartLine represents a requested quantity of one product in a cart
type CartLine struct {
	ProductID string `json:"barcode"`
	Quantity  int64  `json:"quantity"`
}

// Cart represents a user's shopping cart. Lines keep insertion order.
type Cart struct {
	Owner string     `json:"user_id"`
	Lines []CartLine `json:"items"`
}

// Quantity returns the quantity held for a product, zero when absent
func (c Cart) Quantity(productID string) int64 {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// AddToCartRequest is the body of an add-to-cart call
type AddToCartRequest struct {
	ProductID string `json:"barcode"`
	Quantity  int64  `json:"quantity"`
}
