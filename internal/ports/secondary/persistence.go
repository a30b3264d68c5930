// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is wrapped by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is wrapped by repositories when a write would violate a
	// uniqueness constraint (a second active chain, a taken position).
	ErrDuplicate = errors.New("already exists")
)

// Transactor runs a unit of work atomically. Every escalation state
// transition goes through WithinTx so the "is a chain active" check and the
// write that follows commit or roll back together.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Repositories bundles the repositories bound to one transaction (or to the
// plain database handle for read paths).
type Repositories struct {
	Users           UserRepository
	Shipments       ShipmentRepository
	DeliveryIssues  DeliveryIssueRepository
	Contacts        ContactRepository
	Chains          EscalationChainRepository
	Logs            EscalationLogRepository
	Acknowledgments AcknowledgmentRepository
}

// UserRepository defines the secondary port for reading users.
type UserRepository interface {
	// GetByID retrieves a user by its ID.
	GetByID(ctx context.Context, id string) (*UserRecord, error)
}

// UserRecord represents a user as stored in persistence.
type UserRecord struct {
	ID        string
	Name      string
	Email     string
	Role      string // 'admin', 'manager', 'dispatcher', 'driver', 'customer'
	PushToken string // Empty string means null
}

// ShipmentRepository defines the secondary port for reading shipments.
type ShipmentRepository interface {
	// GetByID retrieves a shipment by its ID.
	GetByID(ctx context.Context, id string) (*ShipmentRecord, error)
}

// ShipmentRecord represents a shipment as stored in persistence.
type ShipmentRecord struct {
	ID             string
	TrackingNumber string
	Status         string
}

// DeliveryIssueRepository defines the secondary port for reading delivery issues.
type DeliveryIssueRepository interface {
	// GetByID retrieves a delivery issue by its ID.
	GetByID(ctx context.Context, id string) (*DeliveryIssueRecord, error)
}

// DeliveryIssueRecord represents a delivery issue as stored in persistence.
type DeliveryIssueRecord struct {
	ID          string
	ShipmentID  string
	IssueType   string
	Status      string
	Description string
}

// ContactRepository defines the secondary port for escalation contact persistence.
type ContactRepository interface {
	// Create persists a new contact.
	Create(ctx context.Context, contact *ContactRecord) error

	// GetByID retrieves a contact by its ID, joined with its user.
	GetByID(ctx context.Context, id string) (*ContactRecord, error)

	// List retrieves contacts ordered by ascending position.
	List(ctx context.Context, filters ContactFilters) ([]*ContactRecord, error)

	// SetActive toggles the soft-disable flag.
	SetActive(ctx context.Context, id string, active bool) error

	// PositionTaken reports whether any contact (active or not) holds position.
	PositionTaken(ctx context.Context, position int) (bool, error)

	// GetNextID returns the next available contact ID.
	GetNextID(ctx context.Context) (string, error)
}

// ContactRecord represents an escalation contact as stored in persistence.
type ContactRecord struct {
	ID             string
	UserID         string
	Position       int
	ContactType    string // 'email', 'phone', 'push'
	TimeoutSeconds int
	IsActive       bool
	CreatedAt      time.Time

	// Joined from users
	UserName      string
	UserEmail     string
	UserPushToken string
}

// ContactFilters contains filter options for querying contacts.
type ContactFilters struct {
	ActiveOnly bool
}

// EscalationChainRepository defines the secondary port for escalation chains.
// A chain groups the log rows between a trigger and its acknowledgment.
type EscalationChainRepository interface {
	// Create persists a new active chain. Fails if the shipment already has one.
	Create(ctx context.Context, chain *EscalationChainRecord) error

	// GetActive returns the shipment's active chain, or an error wrapping ErrNotFound.
	GetActive(ctx context.Context, shipmentID string) (*EscalationChainRecord, error)

	// SetHead records the attempt number of the chain's outstanding row.
	SetHead(ctx context.Context, id string, attempt int) error

	// Close marks the chain acknowledged.
	Close(ctx context.Context, id string, closedAt time.Time) error

	// GetNextID returns the next available chain ID.
	GetNextID(ctx context.Context) (string, error)
}

// EscalationChainRecord represents an escalation chain as stored in persistence.
type EscalationChainRecord struct {
	ID              string
	ShipmentID      string
	DeliveryIssueID string // Empty string means null
	Status          string // 'active', 'acknowledged'
	HeadAttempt     int
	CreatedAt       time.Time
	ClosedAt        *time.Time
}

// EscalationLogRepository defines the secondary port for escalation log persistence.
// Rows are append-only; only the ack fields of a chain's outstanding row change.
type EscalationLogRepository interface {
	// Append persists a new log row.
	Append(ctx context.Context, log *EscalationLogRecord) error

	// GetByID retrieves a log row with contact, shipment and issue detail.
	GetByID(ctx context.Context, id string) (*EscalationLogRecord, error)

	// Outstanding returns the outstanding row of the shipment's active chain,
	// or an error wrapping ErrNotFound when the shipment is idle.
	Outstanding(ctx context.Context, shipmentID string) (*EscalationLogRecord, error)

	// ListOutstanding returns the outstanding row of every active chain.
	ListOutstanding(ctx context.Context) ([]*EscalationLogRecord, error)

	// ListByShipment returns all rows for a shipment, newest first.
	ListByShipment(ctx context.Context, shipmentID string) ([]*EscalationLogRecord, error)

	// MarkAcknowledged sets the ack fields on a row that is not yet acknowledged.
	MarkAcknowledged(ctx context.Context, id, method string, at time.Time) error

	// GetNextID returns the next available log ID.
	GetNextID(ctx context.Context) (string, error)
}

// EscalationLogRecord represents an escalation log row as stored in persistence.
type EscalationLogRecord struct {
	Seq             int64 // Insertion order; authoritative tiebreaker for createdAt
	ID              string
	ChainID         string
	ShipmentID      string
	DeliveryIssueID string // Empty string means null
	ContactID       string
	AttemptNumber   int
	EventType       string // 'triggered', 'advanced', 'acknowledged'
	Payload         map[string]any
	AckReceived     bool
	AckMethod       string // Empty string means null
	AcknowledgedAt  *time.Time
	CreatedAt       time.Time

	// Joined detail, populated by read methods
	Contact       *ContactRecord
	Shipment      *ShipmentRecord
	DeliveryIssue *DeliveryIssueRecord
}

// AcknowledgmentRepository defines the secondary port for acknowledgment receipts.
// Receipts are append-only.
type AcknowledgmentRepository interface {
	// Create persists a new receipt.
	Create(ctx context.Context, ack *AcknowledgmentRecord) error

	// ListByShipment returns receipts for a shipment, newest first.
	ListByShipment(ctx context.Context, shipmentID string) ([]*AcknowledgmentRecord, error)

	// GetNextID returns the next available acknowledgment ID.
	GetNextID(ctx context.Context) (string, error)
}

// AcknowledgmentRecord represents an acknowledgment receipt as stored in persistence.
type AcknowledgmentRecord struct {
	ID              string
	ShipmentID      string
	DeliveryIssueID string // Empty string means null
	UserID          string
	Method          string
	Notes           string // Empty string means null
	CreatedAt       time.Time
}
