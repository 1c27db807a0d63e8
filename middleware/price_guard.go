package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/utils"
)

const maxOrderBody = 1 << 20

// PriceGuard checks declared prices of an order submission before the handler runs and
// hands the untouched body on.
func PriceGuard(guard *services.PriceGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxOrderBody))
			r.Body.Close()
			if err != nil {
				utils.WriteJSONError(w, http.StatusBadRequest, string(models.CodeMalformedRequest), "could not read body")
				return
			}
			order, err := DecodeOrder(body)
			if err != nil {
				utils.WriteError(w, r, err)
				return
			}
			if err := guard.Validate(r.Context(), order.Items); err != nil {
				utils.WriteError(w, r, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// DecodeOrder parses an order submission strictly: unknown fields are rejected.
func DecodeOrder(body []byte) (models.OrderRequest, error) {
	var order models.OrderRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&order); err != nil {
		return models.OrderRequest{}, models.MalformedRequest(err.Error())
	}
	return order, nil
}
