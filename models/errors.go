package models

import "fmt"

// Code identifies a domain failure reported back to the caller.
type Code string

const (
	CodeInvalidQuantity   Code = "invalid_quantity"
	CodeInvalidPrice      Code = "invalid_price"
	CodeProductNotFound   Code = "product_not_found"
	CodeInsufficientStock Code = "insufficient_stock"
	CodePriceMismatch     Code = "price_mismatch"
	CodeMalformedRequest  Code = "malformed_request"
)

// Error is a domain error. Anything that is not an *Error is treated as an internal fault.
type Error struct {
	Code      Code
	ProductID string
	Message   string
}

func (e *Error) Error() string {
	if e.ProductID == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (barcode: %s)", e.Message, e.ProductID)
}

// Is matches on Code, and on ProductID when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.ProductID == "" || t.ProductID == e.ProductID
}

var (
	ErrInvalidQuantity   = &Error{Code: CodeInvalidQuantity, Message: "quantity must be greater than 0"}
	ErrInvalidPrice      = &Error{Code: CodeInvalidPrice, Message: "price must be a non-negative number"}
	ErrProductNotFound   = &Error{Code: CodeProductNotFound, Message: "product not found"}
	ErrInsufficientStock = &Error{Code: CodeInsufficientStock, Message: "insufficient stock"}
	ErrPriceMismatch     = &Error{Code: CodePriceMismatch, Message: "security alert: price mismatch"}
	ErrMalformedRequest  = &Error{Code: CodeMalformedRequest, Message: "malformed request"}
)

// ProductNotFound reports a missing product.
func ProductNotFound(id string) error {
	return &Error{Code: CodeProductNotFound, ProductID: id, Message: ErrProductNotFound.Message}
}

// InsufficientStock reports a line that cannot be served from current stock.
func InsufficientStock(id string, available int64) error {
	return &Error{
		Code:      CodeInsufficientStock,
		ProductID: id,
		Message:   fmt.Sprintf("insufficient stock, available: %d", available),
	}
}

// PriceMismatch reports a declared price that differs from the catalog.
func PriceMismatch(id string) error {
	return &Error{Code: CodePriceMismatch, ProductID: id, Message: ErrPriceMismatch.Message}
}

// InvalidPrice reports a price that is negative or cannot be parsed.
func InvalidPrice(id string) error {
	return &Error{Code: CodeInvalidPrice, ProductID: id, Message: ErrInvalidPrice.Message}
}

// InvalidQuantity reports a non-positive quantity on a line.
func InvalidQuantity(id string) error {
	return &Error{Code: CodeInvalidQuantity, ProductID: id, Message: ErrInvalidQuantity.Message}
}

// MalformedRequest reports a request the engine cannot interpret.
func MalformedRequest(details string) error {
	return &Error{Code: CodeMalformedRequest, Message: "malformed request: " + details}
}
