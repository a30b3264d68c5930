package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/logitrack/internal/ports/secondary"
)

// UserRepository implements secondary.UserRepository with SQLite.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by its ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*secondary.UserRecord, error) {
	var pushToken sql.NullString

	record := &secondary.UserRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, role, push_token FROM users WHERE id = ?",
		id,
	).Scan(&record.ID, &record.Name, &record.Email, &record.Role, &pushToken)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s %w", id, secondary.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	record.PushToken = pushToken.String

	return record, nil
}

var _ secondary.UserRepository = (*UserRepository)(nil)
