package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/logitrack/internal/ports/secondary"
)

// ContactRepository implements secondary.ContactRepository with SQLite.
type ContactRepository struct {
	db DBTX
}

// NewContactRepository creates a new SQLite escalation contact repository.
func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `c.id, c.user_id, c.position, c.contact_type, c.timeout_seconds, c.is_active, c.created_at,
	u.name, u.email, u.push_token`

const contactFrom = ` FROM escalation_contacts c JOIN users u ON u.id = c.user_id`

// Create persists a new contact.
func (r *ContactRepository) Create(ctx context.Context, contact *secondary.ContactRecord) error {
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO escalation_contacts (id, user_id, position, contact_type, timeout_seconds, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.ID,
		contact.UserID,
		contact.Position,
		contact.ContactType,
		contact.TimeoutSeconds,
		contact.IsActive,
		contact.CreatedAt,
		contact.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("contact position %d %w", contact.Position, secondary.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetByID retrieves a contact by its ID.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*secondary.ContactRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+contactColumns+contactFrom+" WHERE c.id = ?", id)

	record, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contact %s %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return record, nil
}

// List retrieves contacts ordered by ascending position.
func (r *ContactRepository) List(ctx context.Context, filters secondary.ContactFilters) ([]*secondary.ContactRecord, error) {
	query := "SELECT " + contactColumns + contactFrom + " WHERE 1=1"
	if filters.ActiveOnly {
		query += " AND c.is_active = 1"
	}
	query += " ORDER BY c.position ASC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*secondary.ContactRecord
	for rows.Next() {
		record, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}

	return contacts, nil
}

// SetActive toggles the soft-disable flag.
func (r *ContactRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE escalation_contacts SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		active, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return rowsAffectedOrNotFound(result, "contact %s", id)
}

// PositionTaken reports whether any contact holds position.
func (r *ContactRepository) PositionTaken(ctx context.Context, position int) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM escalation_contacts WHERE position = ?",
		position,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check position: %w", err)
	}
	return count > 0, nil
}

// GetNextID returns the next available contact ID.
func (r *ContactRepository) GetNextID(ctx context.Context) (string, error) {
	return nextID(ctx, r.db, "escalation_contacts", "CONT-", 3)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*secondary.ContactRecord, error) {
	var pushToken sql.NullString

	record := &secondary.ContactRecord{}
	err := row.Scan(
		&record.ID, &record.UserID, &record.Position, &record.ContactType, &record.TimeoutSeconds, &record.IsActive, &record.CreatedAt,
		&record.UserName, &record.UserEmail, &pushToken,
	)
	if err != nil {
		return nil, err
	}
	record.UserPushToken = pushToken.String
	return record, nil
}

var _ secondary.ContactRepository = (*ContactRepository)(nil)
