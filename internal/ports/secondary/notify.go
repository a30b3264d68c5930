package secondary

import (
	"context"
	"time"
)

// Event is one published state transition, already serialised.
type Event struct {
	ID        string
	Channel   string
	Name      string
	Timestamp time.Time
	Data      []byte // JSON encoding of the updated escalation log row
}

// EventPublisher delivers events to subscribers. Delivery is best-effort.
type EventPublisher interface {
	// Publish hands the event to the sink.
	Publish(ctx context.Context, event Event) error

	// Name identifies the sink in logs and metrics.
	Name() string
}

// Page is a request for one contact to act on an escalation.
type Page struct {
	ContactID     string
	UserID        string
	UserName      string
	Email         string
	PushToken     string
	ShipmentID    string
	AttemptNumber int
	Subject       string
	Body          string
}

// Pager reaches a contact through one contact method.
type Pager interface {
	// Page delivers the page.
	Page(ctx context.Context, page Page) error

	// ContactType is the contact method this pager serves ('email', 'phone', 'push').
	ContactType() string
}
