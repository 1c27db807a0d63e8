package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// OrderLineRequest is one client-declared line of a direct order
type OrderLineRequest struct {
	ProductID     string `json:"barcode"`
	Quantity      int64  `json:"quantity"`
	DeclaredPrice Amount `json:"price"`
}

// OrderRequest is the body of a direct order submission
type OrderRequest struct {
	Items []OrderLineRequest `json:"items"`
}

// ReceiptLine is a resolved line billed at the authoritative price
type ReceiptLine struct {
	ProductID    string
	Name         string
	UnitPrice    decimal.Decimal
	Quantity     int64
	LineSubtotal decimal.Decimal
}

// NewReceiptLine prices a line; the subtotal is computed here and nowhere else.
func NewReceiptLine(p Product, quantity int64) ReceiptLine {
	return ReceiptLine{
		ProductID:    p.ID,
		Name:         p.Name,
		UnitPrice:    p.Price,
		Quantity:     quantity,
		LineSubtotal: p.Price.Mul(decimal.NewFromInt(quantity)),
	}
}

type receiptLineJSON struct {
	ProductID    string `json:"barcode"`
	Name         string `json:"name"`
	UnitPrice    string `json:"price_per_unit"`
	Quantity     int64  `json:"quantity"`
	LineSubtotal string `json:"item_subtotal"`
}

func (l ReceiptLine) MarshalJSON() ([]byte, error) {
	return json.Marshal(receiptLineJSON{
		ProductID:    l.ProductID,
		Name:         l.Name,
		UnitPrice:    Display(l.UnitPrice),
		Quantity:     l.Quantity,
		LineSubtotal: Display(l.LineSubtotal),
	})
}

// OrderReceipt is the immutable result of a committed order. Amounts keep full precision;
// rounding happens only when the receipt is rendered.
type OrderReceipt struct {
	OrderID    string
	Lines      []ReceiptLine
	Subtotal   decimal.Decimal
	ServiceFee decimal.Decimal
	Total      decimal.Decimal
	CreatedAt  time.Time
}

type receiptJSON struct {
	OrderID    string        `json:"order_id"`
	Message    string        `json:"message"`
	Items      []ReceiptLine `json:"items"`
	Subtotal   string        `json:"subtotal"`
	ServiceFee string        `json:"service_fee"`
	Total      string        `json:"total_to_pay"`
	CreatedAt  time.Time     `json:"created_at"`
}

// OrderPlacedMessage is returned alongside every committed receipt
const OrderPlacedMessage = "Order placed successfully. Thank you for your purchase!"

func (r OrderReceipt) MarshalJSON() ([]byte, error) {
	return json.Marshal(receiptJSON{
		OrderID:    r.OrderID,
		Message:    OrderPlacedMessage,
		Items:      r.Lines,
		Subtotal:   Display(r.Subtotal),
		ServiceFee: Display(r.ServiceFee),
		Total:      Display(r.Total),
		CreatedAt:  r.CreatedAt,
	})
}

// Display renders a monetary amount rounded to two decimal places (half away from zero)
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// OrderDocument is the stored form of a receipt, amounts kept at full precision
type OrderDocument struct {
	ID         string              `bson:"_id"`
	Lines      []ReceiptLineRecord `bson:"items"`
	Subtotal   string              `bson:"subtotal"`
	ServiceFee string              `bson:"service_fee"`
	Total      string              `bson:"total"`
	CreatedAt  time.Time           `bson:"created_at"`
}

// ReceiptLineRecord is the stored form of a receipt line
type ReceiptLineRecord struct {
	ProductID    string `bson:"barcode"`
	Name         string `bson:"name"`
	UnitPrice    string `bson:"unit_price"`
	Quantity     int64  `bson:"quantity"`
	LineSubtotal string `bson:"line_subtotal"`
}

// ToDocument converts the receipt to its stored form
func (r OrderReceipt) ToDocument() OrderDocument {
	lines := make([]ReceiptLineRecord, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, ReceiptLineRecord{
			ProductID:    l.ProductID,
			Name:         l.Name,
			UnitPrice:    l.UnitPrice.String(),
			Quantity:     l.Quantity,
			LineSubtotal: l.LineSubtotal.String(),
		})
	}
	return OrderDocument{
		ID:         r.OrderID,
		Lines:      lines,
		Subtotal:   r.Subtotal.String(),
		ServiceFee: r.ServiceFee.String(),
		Total:      r.Total.String(),
		CreatedAt:  r.CreatedAt,
	}
}

// ToReceipt restores a receipt from its stored form
func (d OrderDocument) ToReceipt() (OrderReceipt, error) {
	r := OrderReceipt{OrderID: d.ID, CreatedAt: d.CreatedAt}
	var err error
	for _, l := range d.Lines {
		line := ReceiptLine{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity}
		if line.UnitPrice, err = decimal.NewFromString(l.UnitPrice); err != nil {
			return OrderReceipt{}, err
		}
		if line.LineSubtotal, err = decimal.NewFromString(l.LineSubtotal); err != nil {
			return OrderReceipt{}, err
		}
		r.Lines = append(r.Lines, line)
	}
	if r.Subtotal, err = decimal.NewFromString(d.Subtotal); err != nil {
		return OrderReceipt{}, err
	}
	if r.ServiceFee, err = decimal.NewFromString(d.ServiceFee); err != nil {
		return OrderReceipt{}, err
	}
	if r.Total, err = decimal.NewFromString(d.Total); err != nil {
		return OrderReceipt{}, err
	}
	return r, nil
}
