package utils

import (
	"errors"
	"testing"

	"go-marketplace/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	from, to, subject, html, text string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) send(from, to, subject, html, text string) error {
	f.sent = append(f.sent, sentMail{from, to, subject, html, text})
	return f.err
}

func TestSendOrderConfirmation(t *testing.T) {
	fake := &fakeMailer{}
	es := &EmailService{mailer: fake, sender: "shop@example.com", owner: "owner@example.com"}
	p := models.Product{ID: "RICE001", Name: "Rice", Price: decimal.RequireFromString("2.50")}
	receipt := models.OrderReceipt{
		OrderID:    "order-1",
		Lines:      []models.ReceiptLine{models.NewReceiptLine(p, 3)},
		Subtotal:   decimal.RequireFromString("7.5"),
		ServiceFee: decimal.RequireFromString("0.375"),
		Total:      decimal.RequireFromString("7.875"),
	}

	require.NoError(t, es.SendOrderConfirmation(receipt))
	require.Len(t, fake.sent, 1)
	m := fake.sent[0]
	assert.Equal(t, "owner@example.com", m.to)
	assert.Equal(t, "shop@example.com", m.from)
	assert.Contains(t, m.subject, "order-1")
	assert.Contains(t, m.text, "Rice (RICE001): 3 x 2.50 = 7.50")
	assert.Contains(t, m.text, "Total: 7.88")
	assert.Contains(t, m.html, "<strong>7.88</strong>")
}

func TestSendEmailWrapsProviderErrors(t *testing.T) {
	es := &EmailService{mailer: &fakeMailer{err: errors.New("quota")}, owner: "o@example.com"}
	err := es.SendOrderConfirmation(models.OrderReceipt{})
	assert.ErrorContains(t, err, "failed to send email: quota")
}

func TestNewEmailServiceDisabled(t *testing.T) {
	var cfg Config
	cfg.Mail.Provider = "none"
	assert.IsType(t, NopNotifier{}, NewEmailService(cfg))

	cfg.Mail.Provider = "postmark"
	cfg.Mail.PostmarkToken = "token"
	assert.IsType(t, NopNotifier{}, NewEmailService(cfg), "no owner address means nothing to notify")

	cfg.Mail.OwnerEmail = "owner@example.com"
	assert.IsType(t, &EmailService{}, NewEmailService(cfg))
}
