// Package mail pages email contacts over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/example/logitrack/internal/config"
	"github.com/example/logitrack/internal/ports/secondary"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Pager sends one plain-text email per page. Sends are not retried.
type Pager struct {
	dialer        dialer
	senderAddress string
	senderName    string
	logger        *zap.Logger
}

var _ secondary.Pager = (*Pager)(nil)

// NewPager creates an SMTP pager from the mail configuration.
func NewPager(cfg config.MailConfig, logger *zap.Logger) *Pager {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if cfg.InsecureSkipVerify {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("mail pager created", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	return newPager(d, cfg.SenderAddress, cfg.SenderName, logger)
}

func newPager(d dialer, senderAddress, senderName string, logger *zap.Logger) *Pager {
	if senderAddress == "" {
		senderAddress = "noreply@logitrack.local"
	}
	if senderName == "" {
		senderName = "Logitrack"
	}
	return &Pager{dialer: d, senderAddress: senderAddress, senderName: senderName, logger: logger.Named("mail")}
}

// ContactType implements secondary.Pager.
func (p *Pager) ContactType() string { return "email" }

// Page implements secondary.Pager.
func (p *Pager) Page(ctx context.Context, page secondary.Page) error {
	if page.Email == "" {
		return fmt.Errorf("user %s has no email address", page.UserID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", p.senderAddress, p.senderName)
	msg.SetAddressHeader("To", page.Email, page.UserName)
	msg.SetHeader("Subject", page.Subject)
	msg.SetHeader("X-Logitrack-Shipment", page.ShipmentID)
	msg.SetBody("text/plain", page.Body)

	if err := p.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send page to %s: %w", page.Email, err)
	}
	p.logger.Debug("page mailed",
		zap.String("contact_id", page.ContactID),
		zap.String("shipment_id", page.ShipmentID),
		zap.Int("attempt", page.AttemptNumber))
	return nil
}
