package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/logitrack/internal/ports/secondary"
)

// ShipmentRepository implements secondary.ShipmentRepository with SQLite.
type ShipmentRepository struct {
	db DBTX
}

// NewShipmentRepository creates a new SQLite shipment repository.
func NewShipmentRepository(db DBTX) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// GetByID retrieves a shipment by its ID.
func (r *ShipmentRepository) GetByID(ctx context.Context, id string) (*secondary.ShipmentRecord, error) {
	record := &secondary.ShipmentRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, tracking_number, status FROM shipments WHERE id = ?",
		id,
	).Scan(&record.ID, &record.TrackingNumber, &record.Status)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("shipment %s %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}

	return record, nil
}

var _ secondary.ShipmentRepository = (*ShipmentRepository)(nil)
