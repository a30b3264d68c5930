package primary

import (
	"context"
	"time"
)

// ContactService defines the primary port for the escalation contact ladder.
type ContactService interface {
	// ListActive returns the active ladder ordered by ascending position.
	ListActive(ctx context.Context) ([]*EscalationContact, error)

	// NextAfter returns the lowest-position active contact above position.
	NextAfter(ctx context.Context, position int) (*EscalationContact, error)

	// ListContacts lists contacts, optionally only active ones.
	ListContacts(ctx context.Context, filters ContactFilters) ([]*EscalationContact, error)

	// CreateContact adds a rung to the ladder.
	CreateContact(ctx context.Context, req CreateContactRequest) (*EscalationContact, error)

	// SetContactActive activates or deactivates a rung.
	SetContactActive(ctx context.Context, req SetContactActiveRequest) (*EscalationContact, error)
}

// EscalationContact represents a ladder rung at the port boundary.
type EscalationContact struct {
	ID             string       `json:"id"`
	UserID         string       `json:"userId"`
	Position       int          `json:"position"`
	ContactType    string       `json:"contactType"` // 'email', 'phone', 'push'
	TimeoutSeconds int          `json:"timeoutSeconds"`
	IsActive       bool         `json:"isActive"`
	CreatedAt      time.Time    `json:"createdAt"`
	User           *UserSummary `json:"user,omitempty"`
}

// ContactFilters contains filter options for listing contacts.
type ContactFilters struct {
	ActiveOnly bool
}

// CreateContactRequest contains parameters for creating a contact.
type CreateContactRequest struct {
	UserID         string `validate:"required"`
	Position       int
	ContactType    string `validate:"required"`
	TimeoutSeconds int
	Actor          Actor
}

// SetContactActiveRequest contains parameters for activating or deactivating a contact.
type SetContactActiveRequest struct {
	ContactID string `validate:"required"`
	Active    bool
	Actor     Actor
}
