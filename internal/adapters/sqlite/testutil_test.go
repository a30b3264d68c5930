// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Instead, use
// setupTestDB() and the seed* helpers.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/logitrack/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool is pinned to one connection so transactions and plain reads see
// the same in-memory database.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_txlock=immediate&_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedUser inserts a test user and returns its ID.
func seedUser(t *testing.T, db *sql.DB, id, role string) string {
	t.Helper()
	if id == "" {
		id = "USR-001"
	}
	if role == "" {
		role = "manager"
	}
	_, err := db.Exec("INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, ?)", id, "User "+id, id+"@test.example", role)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

// seedShipment inserts a test shipment and returns its ID.
func seedShipment(t *testing.T, db *sql.DB, id, trackingNumber string) string {
	t.Helper()
	if id == "" {
		id = "SHIP-001"
	}
	if trackingNumber == "" {
		trackingNumber = "TRK-" + id
	}
	_, err := db.Exec("INSERT INTO shipments (id, tracking_number, status) VALUES (?, ?, 'in_transit')", id, trackingNumber)
	if err != nil {
		t.Fatalf("failed to seed shipment: %v", err)
	}
	return id
}

// seedDeliveryIssue inserts a test delivery issue and returns its ID.
func seedDeliveryIssue(t *testing.T, db *sql.DB, id, shipmentID string) string {
	t.Helper()
	if id == "" {
		id = "ISSUE-001"
	}
	if shipmentID == "" {
		shipmentID = "SHIP-001"
	}
	_, err := db.Exec("INSERT INTO delivery_issues (id, shipment_id, issue_type, status, description) VALUES (?, ?, 'damaged', 'open', 'Crushed pallet')", id, shipmentID)
	if err != nil {
		t.Fatalf("failed to seed delivery issue: %v", err)
	}
	return id
}

// seedContact inserts a test escalation contact and returns its ID.
func seedContact(t *testing.T, db *sql.DB, id, userID string, position int, contactType string, active bool) string {
	t.Helper()
	if contactType == "" {
		contactType = "email"
	}
	_, err := db.Exec(
		"INSERT INTO escalation_contacts (id, user_id, position, contact_type, timeout_seconds, is_active) VALUES (?, ?, ?, ?, 300, ?)",
		id, userID, position, contactType, active,
	)
	if err != nil {
		t.Fatalf("failed to seed contact: %v", err)
	}
	return id
}

// seedChain inserts an active escalation chain and returns its ID.
func seedChain(t *testing.T, db *sql.DB, id, shipmentID string) string {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO escalation_chains (id, shipment_id, status, head_attempt, created_at) VALUES (?, ?, 'active', 1, ?)",
		id, shipmentID, time.Now().UTC(),
	)
	if err != nil {
		t.Fatalf("failed to seed chain: %v", err)
	}
	return id
}

// seedLadder seeds three users and a ladder at positions 1, 2 and 3.
func seedLadder(t *testing.T, db *sql.DB) {
	t.Helper()
	seedUser(t, db, "USR-001", "dispatcher")
	seedUser(t, db, "USR-002", "manager")
	seedUser(t, db, "USR-003", "admin")
	seedContact(t, db, "CONT-001", "USR-001", 1, "email", true)
	seedContact(t, db, "CONT-002", "USR-002", 2, "phone", true)
	seedContact(t, db, "CONT-003", "USR-003", 3, "push", true)
}
