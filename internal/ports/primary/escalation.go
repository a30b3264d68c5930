package primary

import (
	"context"
	"time"
)

// EscalationService defines the primary port for the escalation ladder.
type EscalationService interface {
	// TriggerEscalation starts a chain at the first active contact.
	TriggerEscalation(ctx context.Context, req TriggerEscalationRequest) (*EscalationLog, error)

	// AdvanceEscalation moves the active chain to the next contact.
	AdvanceEscalation(ctx context.Context, req AdvanceEscalationRequest) (*EscalationLog, error)

	// AcknowledgeEscalation closes the active chain on behalf of its addressee.
	AcknowledgeEscalation(ctx context.Context, req AcknowledgeEscalationRequest) (*EscalationLog, error)

	// GetEscalationHistory returns every log row for a shipment, newest first.
	GetEscalationHistory(ctx context.Context, shipmentID string, actor Actor) ([]*EscalationLog, error)

	// ListActiveEscalations returns the outstanding row of every active chain.
	ListActiveEscalations(ctx context.Context, actor Actor) ([]*ActiveEscalation, error)
}

// Actor is the already-authenticated caller.
type Actor struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

// TriggerEscalationRequest contains parameters for triggering an escalation.
type TriggerEscalationRequest struct {
	ShipmentID      string `validate:"required"`
	DeliveryIssueID string // May be empty
	Reason          string `validate:"required,max=2000"`
	Actor           Actor
}

// AdvanceEscalationRequest contains parameters for advancing an escalation.
type AdvanceEscalationRequest struct {
	ShipmentID string `validate:"required"`
	Actor      Actor
}

// AcknowledgeEscalationRequest contains parameters for acknowledging an escalation.
type AcknowledgeEscalationRequest struct {
	ShipmentID string `validate:"required"`
	Method     string `validate:"required,max=64"`
	Notes      string `validate:"max=2000"`
	Actor      Actor
}

// EscalationLog represents one escalation log row at the port boundary,
// joined with its contact, shipment and delivery issue summaries.
type EscalationLog struct {
	ID              string                `json:"id"`
	ChainID         string                `json:"chainId"`
	ShipmentID      string                `json:"shipmentId"`
	DeliveryIssueID string                `json:"deliveryIssueId,omitempty"`
	ContactID       string                `json:"contactId"`
	AttemptNumber   int                   `json:"attemptNumber"`
	EventType       string                `json:"eventType"` // 'triggered', 'advanced', 'acknowledged'
	Payload         map[string]any        `json:"payload,omitempty"`
	AckReceived     bool                  `json:"ackReceived"`
	AckMethod       string                `json:"ackMethod,omitempty"`
	AcknowledgedAt  *time.Time            `json:"acknowledgedAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	Contact         *EscalationContact    `json:"contact,omitempty"`
	Shipment        *ShipmentSummary      `json:"shipment,omitempty"`
	DeliveryIssue   *DeliveryIssueSummary `json:"deliveryIssue,omitempty"`
}

// ActiveEscalation is an outstanding chain with its timeout status.
type ActiveEscalation struct {
	Log     *EscalationLog `json:"log"`
	Overdue bool           `json:"overdue"`
	DueAt   *time.Time     `json:"dueAt,omitempty"` // Nil when the contact has no timeout
}

// ShipmentSummary is the shipment detail joined onto log rows.
type ShipmentSummary struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"trackingNumber"`
	Status         string `json:"status"`
}

// DeliveryIssueSummary is the delivery issue detail joined onto log rows.
type DeliveryIssueSummary struct {
	ID          string `json:"id"`
	IssueType   string `json:"issueType"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// UserSummary is the user detail joined onto contacts.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
