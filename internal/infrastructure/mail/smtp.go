package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"

	"github.com/linkstack-app/payment-service/internal/config"
)

// Sender delivers transactional emails over SMTP.
type Sender struct {
	cfg    *config.EmailConfig
	logger *zap.Logger
}

func NewSender(cfg *config.EmailConfig, logger *zap.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// Enabled reports whether SMTP is configured. Follow-up emails are optional
// in development environments.
func (s *Sender) Enabled() bool {
	return s.cfg.Host != "" && s.cfg.From != ""
}

// SendOrderConfirmation emails the buyer their purchase receipt.
func (s *Sender) SendOrderConfirmation(ctx context.Context, to, buyerName, orderID string, amountCents int64, currency string) error {
	subject := fmt.Sprintf("Your order %s is confirmed", orderID)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for your purchase! Your order <strong>%s</strong> is confirmed.</p>
<p>Amount paid: <strong>%s</strong></p>
<p>Keep this email as your receipt.</p>`,
		htmlName(buyerName), orderID, formatAmount(amountCents, currency))

	return s.send(ctx, to, subject, body)
}

// SendRefundNotice emails the buyer that a refund was issued.
func (s *Sender) SendRefundNotice(ctx context.Context, to, buyerName, orderID string, amountCents int64, currency string) error {
	subject := fmt.Sprintf("Refund issued for order %s", orderID)
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>A refund of <strong>%s</strong> was issued for your order <strong>%s</strong>.</p>
<p>Depending on your bank, it can take 5-10 business days to appear on your statement.</p>`,
		htmlName(buyerName), formatAmount(amountCents, currency), orderID)

	return s.send(ctx, to, subject, body)
}

func (s *Sender) send(_ context.Context, to, subject, body string) error {
	if !s.Enabled() {
		s.logger.Debug("SMTP not configured, skipping email",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}
	if to == "" {
		return nil
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"utf-8\"\r\n\r\n%s",
		s.cfg.From, to, subject, body)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(message)); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}

func htmlName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

// formatAmount renders minor units as a human amount, e.g. 1999 usd -> "$19.99".
func formatAmount(cents int64, currency string) string {
	major := float64(cents) / 100
	switch currency {
	case "usd", "":
		return fmt.Sprintf("$%.2f", major)
	case "eur":
		return fmt.Sprintf("€%.2f", major)
	case "gbp":
		return fmt.Sprintf("£%.2f", major)
	default:
		return fmt.Sprintf("%.2f %s", major, currency)
	}
}
