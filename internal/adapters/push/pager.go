// Package push pages contacts through Firebase Cloud Messaging.
package push

import (
	"context"
	"fmt"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/logitrack/internal/config"
	"github.com/example/logitrack/internal/ports/secondary"
)

type messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Pager sends one FCM notification per page to the user's registered device token.
type Pager struct {
	client messenger
	logger *zap.Logger
}

var _ secondary.Pager = (*Pager)(nil)

// NewPager initializes a Firebase app from a service account file.
func NewPager(ctx context.Context, cfg config.PushConfig, logger *zap.Logger) (*Pager, error) {
	if cfg.CredentialsFile == "" {
		return nil, fmt.Errorf("push credentials file is required")
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return newPager(client, logger), nil
}

func newPager(client messenger, logger *zap.Logger) *Pager {
	return &Pager{client: client, logger: logger.Named("push")}
}

// ContactType implements secondary.Pager.
func (p *Pager) ContactType() string { return "push" }

// Page implements secondary.Pager.
func (p *Pager) Page(ctx context.Context, page secondary.Page) error {
	if page.PushToken == "" {
		return fmt.Errorf("user %s has no registered push token", page.UserID)
	}

	msg := &messaging.Message{
		Token: page.PushToken,
		Notification: &messaging.Notification{
			Title: page.Subject,
			Body:  page.Body,
		},
		Data: map[string]string{
			"shipmentId":    page.ShipmentID,
			"contactId":     page.ContactID,
			"attemptNumber": strconv.Itoa(page.AttemptNumber),
		},
		Android: &messaging.AndroidConfig{Priority: "high"},
	}

	id, err := p.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to push page to %s: %w", page.UserID, err)
	}
	p.logger.Debug("page pushed",
		zap.String("message_id", id),
		zap.String("contact_id", page.ContactID),
		zap.String("shipment_id", page.ShipmentID))
	return nil
}
