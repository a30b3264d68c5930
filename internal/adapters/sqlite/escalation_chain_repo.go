package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/logitrack/internal/ports/secondary"
)

// EscalationChainRepository implements secondary.EscalationChainRepository with SQLite.
type EscalationChainRepository struct {
	db DBTX
}

// NewEscalationChainRepository creates a new SQLite escalation chain repository.
func NewEscalationChainRepository(db DBTX) *EscalationChainRepository {
	return &EscalationChainRepository{db: db}
}

// Create persists a new active chain. The partial unique index on
// escalation_chains rejects a second active chain for the same shipment.
func (r *EscalationChainRepository) Create(ctx context.Context, chain *secondary.EscalationChainRecord) error {
	if chain.CreatedAt.IsZero() {
		chain.CreatedAt = time.Now().UTC()
	}
	if chain.Status == "" {
		chain.Status = "active"
	}
	if chain.HeadAttempt == 0 {
		chain.HeadAttempt = 1
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO escalation_chains (id, shipment_id, delivery_issue_id, status, head_attempt, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		chain.ID,
		chain.ShipmentID,
		nullString(chain.DeliveryIssueID),
		chain.Status,
		chain.HeadAttempt,
		chain.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("active escalation chain for shipment %s %w", chain.ShipmentID, secondary.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create escalation chain: %w", err)
	}

	return nil
}

// GetActive returns the shipment's active chain.
func (r *EscalationChainRepository) GetActive(ctx context.Context, shipmentID string) (*secondary.EscalationChainRecord, error) {
	var (
		deliveryIssueID sql.NullString
		closedAt        sql.NullTime
	)

	record := &secondary.EscalationChainRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, shipment_id, delivery_issue_id, status, head_attempt, created_at, closed_at FROM escalation_chains WHERE shipment_id = ? AND status = 'active'`,
		shipmentID,
	).Scan(&record.ID, &record.ShipmentID, &deliveryIssueID, &record.Status, &record.HeadAttempt, &record.CreatedAt, &closedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("active escalation chain for shipment %s %w", shipmentID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation chain: %w", err)
	}
	record.DeliveryIssueID = deliveryIssueID.String
	record.ClosedAt = timePtr(closedAt)

	return record, nil
}

// SetHead records the attempt number of the chain's outstanding row.
func (r *EscalationChainRepository) SetHead(ctx context.Context, id string, attempt int) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE escalation_chains SET head_attempt = ? WHERE id = ? AND status = 'active'",
		attempt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update escalation chain: %w", err)
	}
	return rowsAffectedOrNotFound(result, "active escalation chain %s", id)
}

// Close marks the chain acknowledged, which frees the shipment for a new trigger.
func (r *EscalationChainRepository) Close(ctx context.Context, id string, closedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE escalation_chains SET status = 'acknowledged', closed_at = ? WHERE id = ? AND status = 'active'",
		closedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to close escalation chain: %w", err)
	}
	return rowsAffectedOrNotFound(result, "active escalation chain %s", id)
}

// GetNextID returns the next available chain ID.
func (r *EscalationChainRepository) GetNextID(ctx context.Context) (string, error) {
	return nextID(ctx, r.db, "escalation_chains", "ECH-", 3)
}

var _ secondary.EscalationChainRepository = (*EscalationChainRepository)(nil)
