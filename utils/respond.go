package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"go-marketplace/models"
)

type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Barcode string `json:"barcode,omitempty"`
}

// WriteJSON writes v with the given status code
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes a JSON error payload with the given status code
func WriteJSONError(w http.ResponseWriter, status int, code, details string) {
	WriteJSON(w, status, jsonError{Error: code, Details: details})
}

// StatusFor maps a domain error code to its HTTP status
func StatusFor(code models.Code) int {
	switch code {
	case models.CodeProductNotFound:
		return http.StatusNotFound
	case models.CodePriceMismatch:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// WriteError answers with the domain error carried by err. Anything else is an internal
// fault: it is logged and reported without details.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *models.Error
	if errors.As(err, &derr) {
		WriteJSON(w, StatusFor(derr.Code), jsonError{
			Error:   string(derr.Code),
			Details: derr.Message,
			Barcode: derr.ProductID,
		})
		return
	}
	Log().Error("internal_error", "method", r.Method, "path", r.URL.Path, "error", err)
	WriteJSONError(w, http.StatusInternalServerError, "internal_error", "")
}
