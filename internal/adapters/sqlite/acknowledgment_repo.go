package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/logitrack/internal/ports/secondary"
)

// AcknowledgmentRepository implements secondary.AcknowledgmentRepository with SQLite.
type AcknowledgmentRepository struct {
	db DBTX
}

// NewAcknowledgmentRepository creates a new SQLite acknowledgment repository.
func NewAcknowledgmentRepository(db DBTX) *AcknowledgmentRepository {
	return &AcknowledgmentRepository{db: db}
}

// Create persists a new receipt.
func (r *AcknowledgmentRepository) Create(ctx context.Context, ack *secondary.AcknowledgmentRecord) error {
	if ack.CreatedAt.IsZero() {
		ack.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO acknowledgments (id, shipment_id, delivery_issue_id, user_id, method, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ack.ID,
		ack.ShipmentID,
		nullString(ack.DeliveryIssueID),
		ack.UserID,
		ack.Method,
		nullString(ack.Notes),
		ack.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create acknowledgment: %w", err)
	}

	return nil
}

// ListByShipment returns receipts for a shipment, newest first.
func (r *AcknowledgmentRepository) ListByShipment(ctx context.Context, shipmentID string) ([]*secondary.AcknowledgmentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, shipment_id, delivery_issue_id, user_id, method, notes, created_at FROM acknowledgments WHERE shipment_id = ? ORDER BY created_at DESC, id DESC`,
		shipmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list acknowledgments: %w", err)
	}
	defer rows.Close()

	var acks []*secondary.AcknowledgmentRecord
	for rows.Next() {
		var deliveryIssueID, notes sql.NullString

		record := &secondary.AcknowledgmentRecord{}
		if err := rows.Scan(&record.ID, &record.ShipmentID, &deliveryIssueID, &record.UserID, &record.Method, &notes, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan acknowledgment: %w", err)
		}
		record.DeliveryIssueID = deliveryIssueID.String
		record.Notes = notes.String

		acks = append(acks, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate acknowledgments: %w", err)
	}

	return acks, nil
}

// GetNextID returns the next available acknowledgment ID.
func (r *AcknowledgmentRepository) GetNextID(ctx context.Context) (string, error) {
	return nextID(ctx, r.db, "acknowledgments", "ACK-", 3)
}

var _ secondary.AcknowledgmentRepository = (*AcknowledgmentRepository)(nil)
