// internal/app/system/mailer/mailer.go
//
// Package mailer sends transactional email over SMTP. It implements
// signup.CodeSender for verification codes and carries best-effort
// order notifications.
package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Email is a fully-rendered message ready to send.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds the SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // e.g. "Storefront <no-reply@example.com>"
	SiteName string
}

// Mailer sends email through a single SMTP account.
type Mailer struct {
	dialer   *gomail.Dialer
	from     string
	siteName string
	log      *zap.Logger
}

// New builds a Mailer. It does not dial; connection problems surface on
// the first send.
func New(cfg Config, log *zap.Logger) (*Mailer, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("mailer: host and from address are required")
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &Mailer{
		dialer:   gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password),
		from:     cfg.From,
		siteName: cfg.SiteName,
		log:      log,
	}, nil
}

// Send delivers one message. The context deadline is advisory only;
// gomail dials synchronously, so callers should budget a Long timeout.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", e.To)
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/plain", e.TextBody)
	if e.HTMLBody != "" {
		msg.AddAlternative("text/html", e.HTMLBody)
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", e.To, err)
	}
	m.log.Debug("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

// SendVerificationCode implements signup.CodeSender.
func (m *Mailer) SendVerificationCode(ctx context.Context, email, code string) error {
	msg := BuildVerificationEmail(VerificationEmailData{
		SiteName:  m.siteName,
		Code:      code,
		ExpiresIn: "10 minutes",
	})
	msg.To = email
	return m.Send(ctx, msg)
}

// SendOrderCancelled notifies a customer that their order was
// cancelled. Callers treat failures as best-effort.
func (m *Mailer) SendOrderCancelled(ctx context.Context, email, orderID string) error {
	msg := BuildOrderCancelledEmail(OrderEmailData{
		SiteName: m.siteName,
		OrderID:  orderID,
	})
	msg.To = email
	return m.Send(ctx, msg)
}
