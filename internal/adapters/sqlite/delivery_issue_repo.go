package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/logitrack/internal/ports/secondary"
)

// DeliveryIssueRepository implements secondary.DeliveryIssueRepository with SQLite.
type DeliveryIssueRepository struct {
	db DBTX
}

// NewDeliveryIssueRepository creates a new SQLite delivery issue repository.
func NewDeliveryIssueRepository(db DBTX) *DeliveryIssueRepository {
	return &DeliveryIssueRepository{db: db}
}

// GetByID retrieves a delivery issue by its ID.
func (r *DeliveryIssueRepository) GetByID(ctx context.Context, id string) (*secondary.DeliveryIssueRecord, error) {
	var desc sql.NullString

	record := &secondary.DeliveryIssueRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, shipment_id, issue_type, status, description FROM delivery_issues WHERE id = ?",
		id,
	).Scan(&record.ID, &record.ShipmentID, &record.IssueType, &record.Status, &desc)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("delivery issue %s %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery issue: %w", err)
	}
	record.Description = desc.String

	return record, nil
}

var _ secondary.DeliveryIssueRepository = (*DeliveryIssueRepository)(nil)
