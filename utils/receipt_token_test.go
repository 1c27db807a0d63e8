package utils

import (
	"testing"
	"time"

	"go-marketplace/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptSignerRoundTrip(t *testing.T) {
	s := NewReceiptSigner("secret", time.Hour, "go-marketplace")
	receipt := models.OrderReceipt{
		OrderID:   "order-1",
		Total:     decimal.RequireFromString("7.875"),
		Lines:     make([]models.ReceiptLine, 2),
		CreatedAt: time.Now(),
	}

	token, err := s.Sign(receipt)
	require.NoError(t, err)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "order-1", claims.OrderID)
	assert.Equal(t, "7.875", claims.Total)
	assert.Equal(t, 2, claims.Items)
	assert.Equal(t, "go-marketplace", claims.Issuer)
}

func TestReceiptSignerRejectsForgeries(t *testing.T) {
	s := NewReceiptSigner("secret", time.Hour, "go-marketplace")
	other := NewReceiptSigner("other", time.Hour, "go-marketplace")
	token, err := other.Sign(models.OrderReceipt{OrderID: "order-1", CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = s.Verify(token)
	assert.Error(t, err)
	_, err = s.Verify("not-a-token")
	assert.Error(t, err)
}

func TestReceiptSignerExpiry(t *testing.T) {
	s := NewReceiptSigner("secret", time.Minute, "go-marketplace")
	token, err := s.Sign(models.OrderReceipt{OrderID: "old", CreatedAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	_, err = s.Verify(token)
	assert.Error(t, err)
}

func TestReceiptSignerDisabled(t *testing.T) {
	s := NewReceiptSigner("", time.Hour, "x")
	assert.False(t, s.Enabled())
	_, err := s.Sign(models.OrderReceipt{})
	assert.Error(t, err)
}
