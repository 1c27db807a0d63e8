package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-marketplace/models"
	"go-marketplace/services"
	"go-marketplace/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guardedHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()
	catalog := store.NewMemoryCatalog()
	require.NoError(t, catalog.Upsert(context.Background(), models.Product{
		ID: "RICE001", Name: "Rice", Price: decimal.RequireFromString("2.50"), Stock: 10,
	}))
	var body string
	h := PriceGuard(services.NewPriceGuard(catalog))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	return h, &body
}

func TestPriceGuardMiddlewarePassesBodyThrough(t *testing.T) {
	h, body := guardedHandler(t)
	payload := `{"items":[{"barcode":"RICE001","quantity":3,"price":"2.50"}]}`

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/client/order", strings.NewReader(payload)))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, payload, *body)
}

func TestPriceGuardMiddlewareRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		status  int
		code    string
	}{
		{"mismatch", `{"items":[{"barcode":"RICE001","quantity":3,"price":"2.40"}]}`, http.StatusForbidden, "price_mismatch"},
		{"missing price", `{"items":[{"barcode":"RICE001","quantity":3}]}`, http.StatusBadRequest, "malformed_request"},
		{"unknown field", `{"items":[],"discount":1}`, http.StatusBadRequest, "malformed_request"},
		{"garbage", `{`, http.StatusBadRequest, "malformed_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, body := guardedHandler(t)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/client/order", strings.NewReader(tt.payload)))
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), `"error":"`+tt.code+`"`)
			assert.Empty(t, *body)
		})
	}
}

func TestPriceGuardMiddlewareIgnoresReads(t *testing.T) {
	h, _ := guardedHandler(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/client/order", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
