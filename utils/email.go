package utils

import (
	"fmt"
	"strings"

	"go-marketplace/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier is told about every committed order
type Notifier interface {
	SendOrderConfirmation(receipt models.OrderReceipt) error
}

// NopNotifier is used when no mail provider is configured
type NopNotifier struct{}

func (NopNotifier) SendOrderConfirmation(models.OrderReceipt) error { return nil }

type mailer interface {
	send(from, to, subject, html, text string) error
}

type postmarkMailer struct {
	client *postmark.Client
}

func (m postmarkMailer) send(from, to, subject, html, text string) error {
	_, err := m.client.SendEmail(postmark.Email{
		From:     from,
		To:       to,
		Subject:  subject,
		HtmlBody: html,
		TextBody: text,
	})
	return err
}

type sendgridMailer struct {
	client *sendgrid.Client
}

func (m sendgridMailer) send(from, to, subject, html, text string) error {
	msg := mail.NewSingleEmail(mail.NewEmail("", from), subject, mail.NewEmail("", to), text, html)
	resp, err := m.client.Send(msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// EmailService sends order confirmations to the shop owner
type EmailService struct {
	mailer mailer
	sender string
	owner  string
}

// NewEmailService picks the provider named in the mail config. It returns a NopNotifier
// when mail is disabled.
func NewEmailService(cfg Config) Notifier {
	var m mailer
	switch cfg.Mail.Provider {
	case "postmark":
		m = postmarkMailer{client: postmark.NewClient(cfg.Mail.PostmarkToken, "")}
	case "sendgrid":
		m = sendgridMailer{client: sendgrid.NewSendClient(cfg.Mail.SendgridKey)}
	default:
		return NopNotifier{}
	}
	if cfg.Mail.OwnerEmail == "" {
		Log().Warn("mail provider configured without mail.owner_email, notifications disabled")
		return NopNotifier{}
	}
	return &EmailService{mailer: m, sender: cfg.Mail.Sender, owner: cfg.Mail.OwnerEmail}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent, textContent string) error {
	if err := es.mailer.send(es.sender, toEmail, subject, htmlContent, textContent); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendOrderConfirmation tells the owner about a committed order
func (es *EmailService) SendOrderConfirmation(r models.OrderReceipt) error {
	subject := fmt.Sprintf("New order %s", r.OrderID)

	var html, text strings.Builder
	html.WriteString("<strong>A new order has been placed.</strong><br><br><table>")
	for _, l := range r.Lines {
		fmt.Fprintf(&html, "<tr><td>%s (%s)</td><td>%d x %s</td><td>%s</td></tr>",
			l.Name, l.ProductID, l.Quantity, models.Display(l.UnitPrice), models.Display(l.LineSubtotal))
		fmt.Fprintf(&text, "%s (%s): %d x %s = %s\n",
			l.Name, l.ProductID, l.Quantity, models.Display(l.UnitPrice), models.Display(l.LineSubtotal))
	}
	fmt.Fprintf(&html, "</table><br>Subtotal: %s<br>Service fee: %s<br>Total: <strong>%s</strong>",
		models.Display(r.Subtotal), models.Display(r.ServiceFee), models.Display(r.Total))
	fmt.Fprintf(&text, "\nSubtotal: %s\nService fee: %s\nTotal: %s\n",
		models.Display(r.Subtotal), models.Display(r.ServiceFee), models.Display(r.Total))

	return es.SendEmail(es.owner, subject, html.String(), text.String())
}
