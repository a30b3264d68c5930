// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/example/logitrack/internal/ports/secondary"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so one repository
// implementation serves read paths and transactional units of work.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transactor implements secondary.Transactor with database/sql transactions.
// Opened through db.Open, BeginTx issues BEGIN IMMEDIATE, so the write lock
// is taken before the first read of a unit of work.
type Transactor struct {
	db *sql.DB
}

// NewTransactor creates a new SQLite transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos secondary.Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

// NewRepositories binds every repository to q.
func NewRepositories(q DBTX) secondary.Repositories {
	return secondary.Repositories{
		Users:           NewUserRepository(q),
		Shipments:       NewShipmentRepository(q),
		DeliveryIssues:  NewDeliveryIssueRepository(q),
		Contacts:        NewContactRepository(q),
		Chains:          NewEscalationChainRepository(q),
		Logs:            NewEscalationLogRepository(q),
		Acknowledgments: NewAcknowledgmentRepository(q),
	}
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// nextID computes the next sequential ID for table, e.g. CONT-004.
func nextID(ctx context.Context, q DBTX, table, prefix string, width int) (string, error) {
	var maxID int
	prefixLen := len(prefix) + 1
	err := q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COALESCE(MAX(CAST(SUBSTR(id, %d) AS INTEGER)), 0) FROM %s", prefixLen, table),
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next %s ID: %w", table, err)
	}
	return fmt.Sprintf("%s%0*d", prefix, width, maxID+1), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// rowsAffectedOrNotFound turns a zero-row UPDATE into ErrNotFound.
func rowsAffectedOrNotFound(result sql.Result, format string, args ...any) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %w", fmt.Sprintf(format, args...), secondary.ErrNotFound)
	}
	return nil
}

var _ secondary.Transactor = (*Transactor)(nil)
