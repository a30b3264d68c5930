package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/logitrack/internal/ports/secondary"
)

// EscalationLogRepository implements secondary.EscalationLogRepository with SQLite.
type EscalationLogRepository struct {
	db DBTX
}

// NewEscalationLogRepository creates a new SQLite escalation log repository.
func NewEscalationLogRepository(db DBTX) *EscalationLogRepository {
	return &EscalationLogRepository{db: db}
}

const logSelect = `SELECT l.seq, l.id, l.chain_id, l.shipment_id, l.delivery_issue_id, l.contact_id, l.attempt_number,
	l.event_type, l.payload, l.ack_received, l.ack_method, l.acknowledged_at, l.created_at,
	c.user_id, c.position, c.contact_type, c.timeout_seconds, c.is_active, c.created_at,
	u.name, u.email, u.push_token,
	s.tracking_number, s.status,
	d.issue_type, d.status, d.description
FROM escalation_logs l
JOIN escalation_contacts c ON c.id = l.contact_id
JOIN users u ON u.id = c.user_id
JOIN shipments s ON s.id = l.shipment_id
LEFT JOIN delivery_issues d ON d.id = l.delivery_issue_id`

// outstandingJoin restricts rows to the head of an active chain.
const outstandingJoin = `
JOIN escalation_chains ch ON ch.id = l.chain_id AND ch.status = 'active' AND ch.head_attempt = l.attempt_number`

// Append persists a new log row and records its insertion sequence.
func (r *EscalationLogRepository) Append(ctx context.Context, log *secondary.EscalationLogRecord) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	var payload sql.NullString
	if log.Payload != nil {
		data, err := json.Marshal(log.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode escalation payload: %w", err)
		}
		payload = sql.NullString{String: string(data), Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO escalation_logs (id, chain_id, shipment_id, delivery_issue_id, contact_id, attempt_number, event_type, payload, ack_received, ack_method, acknowledged_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.ChainID,
		log.ShipmentID,
		nullString(log.DeliveryIssueID),
		log.ContactID,
		log.AttemptNumber,
		log.EventType,
		payload,
		log.AckReceived,
		nullString(log.AckMethod),
		nullTime(log.AcknowledgedAt),
		log.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("escalation attempt %d of chain %s %w", log.AttemptNumber, log.ChainID, secondary.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to append escalation log: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read escalation log sequence: %w", err)
	}
	log.Seq = seq

	return nil
}

// GetByID retrieves a log row with contact, shipment and issue detail.
func (r *EscalationLogRepository) GetByID(ctx context.Context, id string) (*secondary.EscalationLogRecord, error) {
	record, err := scanLog(r.db.QueryRowContext(ctx, logSelect+" WHERE l.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("escalation log %s %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escalation log: %w", err)
	}
	return record, nil
}

// Outstanding returns the outstanding row of the shipment's active chain.
func (r *EscalationLogRepository) Outstanding(ctx context.Context, shipmentID string) (*secondary.EscalationLogRecord, error) {
	record, err := scanLog(r.db.QueryRowContext(ctx, logSelect+outstandingJoin+" WHERE l.shipment_id = ?", shipmentID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("outstanding escalation for shipment %s %w", shipmentID, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get outstanding escalation: %w", err)
	}
	return record, nil
}

// ListOutstanding returns the outstanding row of every active chain, oldest first.
func (r *EscalationLogRepository) ListOutstanding(ctx context.Context) ([]*secondary.EscalationLogRecord, error) {
	return r.list(ctx, logSelect+outstandingJoin+" ORDER BY l.created_at ASC, l.seq ASC")
}

// ListByShipment returns all rows for a shipment, newest first. Insertion
// sequence orders rows because transitions serialise on the write lock;
// wall-clock timestamps from different hosts may not.
func (r *EscalationLogRepository) ListByShipment(ctx context.Context, shipmentID string) ([]*secondary.EscalationLogRecord, error) {
	return r.list(ctx, logSelect+" WHERE l.shipment_id = ? ORDER BY l.seq DESC", shipmentID)
}

// MarkAcknowledged sets the ack fields on a row that is not yet acknowledged.
func (r *EscalationLogRepository) MarkAcknowledged(ctx context.Context, id, method string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE escalation_logs SET ack_received = 1, ack_method = ?, acknowledged_at = ? WHERE id = ? AND ack_received = 0",
		method, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to acknowledge escalation log: %w", err)
	}
	return rowsAffectedOrNotFound(result, "unacknowledged escalation log %s", id)
}

// GetNextID returns the next available log ID.
func (r *EscalationLogRepository) GetNextID(ctx context.Context) (string, error) {
	return nextID(ctx, r.db, "escalation_logs", "ELOG-", 4)
}

func (r *EscalationLogRepository) list(ctx context.Context, query string, args ...any) ([]*secondary.EscalationLogRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation logs: %w", err)
	}
	defer rows.Close()

	var logs []*secondary.EscalationLogRecord
	for rows.Next() {
		record, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation log: %w", err)
		}
		logs = append(logs, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate escalation logs: %w", err)
	}

	return logs, nil
}

func scanLog(row rowScanner) (*secondary.EscalationLogRecord, error) {
	var (
		deliveryIssueID sql.NullString
		payload         sql.NullString
		ackMethod       sql.NullString
		acknowledgedAt  sql.NullTime
		pushToken       sql.NullString
		issueType       sql.NullString
		issueStatus     sql.NullString
		issueDesc       sql.NullString
	)

	record := &secondary.EscalationLogRecord{
		Contact:  &secondary.ContactRecord{},
		Shipment: &secondary.ShipmentRecord{},
	}
	err := row.Scan(
		&record.Seq, &record.ID, &record.ChainID, &record.ShipmentID, &deliveryIssueID, &record.ContactID, &record.AttemptNumber,
		&record.EventType, &payload, &record.AckReceived, &ackMethod, &acknowledgedAt, &record.CreatedAt,
		&record.Contact.UserID, &record.Contact.Position, &record.Contact.ContactType, &record.Contact.TimeoutSeconds, &record.Contact.IsActive, &record.Contact.CreatedAt,
		&record.Contact.UserName, &record.Contact.UserEmail, &pushToken,
		&record.Shipment.TrackingNumber, &record.Shipment.Status,
		&issueType, &issueStatus, &issueDesc,
	)
	if err != nil {
		return nil, err
	}

	record.DeliveryIssueID = deliveryIssueID.String
	record.AckMethod = ackMethod.String
	record.AcknowledgedAt = timePtr(acknowledgedAt)

	record.Contact.ID = record.ContactID
	record.Contact.UserPushToken = pushToken.String
	record.Shipment.ID = record.ShipmentID

	if deliveryIssueID.Valid && issueType.Valid {
		record.DeliveryIssue = &secondary.DeliveryIssueRecord{
			ID:          deliveryIssueID.String,
			ShipmentID:  record.ShipmentID,
			IssueType:   issueType.String,
			Status:      issueStatus.String,
			Description: issueDesc.String,
		}
	}

	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), &record.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode escalation payload: %w", err)
		}
	}

	return record, nil
}

var _ secondary.EscalationLogRepository = (*EscalationLogRepository)(nil)
