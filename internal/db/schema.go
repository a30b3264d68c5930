package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh logitrack installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(). If repository code references a column that
// doesn't exist here, tests fail immediately with "no such column".
//
// # Escalation invariants enforced by storage
//
//   - idx_escalation_chains_one_active: at most one active chain per shipment,
//     across every server instance sharing the database.
//   - UNIQUE(chain_id, attempt_number): attempts within a chain never repeat.
//   - trg_escalation_logs_immutable: only the ack columns of a log row change.
//   - trg_acknowledgments_append_only: receipts are never updated.
const SchemaSQL = `
-- Users (read by the ladder; managed by the auth collaborator)
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	role TEXT NOT NULL CHECK(role IN ('admin', 'manager', 'dispatcher', 'driver', 'customer')),
	push_token TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Shipments (read by the ladder; managed by the shipments collaborator)
CREATE TABLE IF NOT EXISTS shipments (
	id TEXT PRIMARY KEY,
	tracking_number TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL DEFAULT 'pending',
	customer_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (customer_id) REFERENCES users(id)
);

-- Delivery issues (reported against shipments)
CREATE TABLE IF NOT EXISTS delivery_issues (
	id TEXT PRIMARY KEY,
	shipment_id TEXT NOT NULL,
	issue_type TEXT NOT NULL,
	status TEXT NOT NULL CHECK(status IN ('open', 'in_progress', 'resolved', 'closed')) DEFAULT 'open',
	description TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (shipment_id) REFERENCES shipments(id) ON DELETE CASCADE
);

-- Escalation contacts (ladder rungs, lower position contacted first)
CREATE TABLE IF NOT EXISTS escalation_contacts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	position INTEGER NOT NULL UNIQUE CHECK(position > 0),
	contact_type TEXT NOT NULL CHECK(contact_type IN ('email', 'phone', 'push')),
	timeout_seconds INTEGER NOT NULL DEFAULT 300 CHECK(timeout_seconds >= 0),
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

-- Escalation chains (trigger .. acknowledgment)
CREATE TABLE IF NOT EXISTS escalation_chains (
	id TEXT PRIMARY KEY,
	shipment_id TEXT NOT NULL,
	delivery_issue_id TEXT,
	status TEXT NOT NULL CHECK(status IN ('active', 'acknowledged')) DEFAULT 'active',
	head_attempt INTEGER NOT NULL DEFAULT 1 CHECK(head_attempt >= 1),
	created_at DATETIME NOT NULL,
	closed_at DATETIME,
	FOREIGN KEY (shipment_id) REFERENCES shipments(id),
	FOREIGN KEY (delivery_issue_id) REFERENCES delivery_issues(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_escalation_chains_one_active
	ON escalation_chains(shipment_id) WHERE status = 'active';

-- Escalation logs (append-only audit trail)
CREATE TABLE IF NOT EXISTS escalation_logs (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	chain_id TEXT NOT NULL,
	shipment_id TEXT NOT NULL,
	delivery_issue_id TEXT,
	contact_id TEXT NOT NULL,
	attempt_number INTEGER NOT NULL CHECK(attempt_number >= 1),
	event_type TEXT NOT NULL CHECK(event_type IN ('triggered', 'advanced', 'acknowledged')),
	payload TEXT,
	ack_received INTEGER NOT NULL DEFAULT 0,
	ack_method TEXT,
	acknowledged_at DATETIME,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (chain_id) REFERENCES escalation_chains(id),
	FOREIGN KEY (shipment_id) REFERENCES shipments(id),
	FOREIGN KEY (delivery_issue_id) REFERENCES delivery_issues(id),
	FOREIGN KEY (contact_id) REFERENCES escalation_contacts(id),
	UNIQUE(chain_id, attempt_number)
);

CREATE INDEX IF NOT EXISTS idx_escalation_logs_shipment ON escalation_logs(shipment_id, seq);

CREATE TRIGGER IF NOT EXISTS trg_escalation_logs_immutable
BEFORE UPDATE OF id, chain_id, shipment_id, delivery_issue_id, contact_id, attempt_number, event_type, payload, created_at
ON escalation_logs
BEGIN
	SELECT RAISE(ABORT, 'escalation log rows are immutable');
END;

-- Acknowledgment receipts (append-only)
CREATE TABLE IF NOT EXISTS acknowledgments (
	id TEXT PRIMARY KEY,
	shipment_id TEXT NOT NULL,
	delivery_issue_id TEXT,
	user_id TEXT NOT NULL,
	method TEXT NOT NULL,
	notes TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (shipment_id) REFERENCES shipments(id),
	FOREIGN KEY (delivery_issue_id) REFERENCES delivery_issues(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_acknowledgments_shipment ON acknowledgments(shipment_id, created_at);

CREATE TRIGGER IF NOT EXISTS trg_acknowledgments_append_only
BEFORE UPDATE ON acknowledgments
BEGIN
	SELECT RAISE(ABORT, 'acknowledgments are append-only');
END;
`

// InitSchema creates the schema on a fresh database, or runs pending
// migrations on an existing one.
func InitSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		// Fresh install - create modern schema directly and mark every
		// migration as applied
		if _, err := db.Exec(SchemaSQL); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		if err := ensureVersionTable(db); err != nil {
			return err
		}
		for _, m := range migrations {
			if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	// schema_version table exists - run any pending migrations
	return RunMigrations(db)
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
