// Package phone stands in for a telephony provider by logging call requests.
package phone

import (
	"context"

	"go.uber.org/zap"

	"github.com/example/logitrack/internal/ports/secondary"
)

// LogPager records phone pages in the structured log for an operator to place the call.
type LogPager struct {
	logger *zap.Logger
}

var _ secondary.Pager = (*LogPager)(nil)

// NewLogPager creates a LogPager.
func NewLogPager(logger *zap.Logger) *LogPager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPager{logger: logger.Named("phone")}
}

// ContactType implements secondary.Pager.
func (p *LogPager) ContactType() string { return "phone" }

// Page implements secondary.Pager.
func (p *LogPager) Page(_ context.Context, page secondary.Page) error {
	p.logger.Info("phone page requested",
		zap.String("contact_id", page.ContactID),
		zap.String("user_id", page.UserID),
		zap.String("user_name", page.UserName),
		zap.String("shipment_id", page.ShipmentID),
		zap.Int("attempt", page.AttemptNumber),
		zap.String("subject", page.Subject))
	return nil
}
