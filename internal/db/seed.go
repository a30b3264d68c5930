package db

import (
	"database/sql"
	"fmt"
	"time"
)

// SeedFixtures populates the database with a demo ladder and the
// collaborator records it needs: one user per role, a few shipments
// with delivery issues, and three escalation contacts.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC()

	users := []struct{ id, name, email, role, pushToken string }{
		{"USR-001", "Ada Admin", "ada@logitrack.example", "admin", "fcm-token-ada"},
		{"USR-002", "Morgan Manager", "morgan@logitrack.example", "manager", ""},
		{"USR-003", "Dana Dispatcher", "dana@logitrack.example", "dispatcher", ""},
		{"USR-004", "Drew Driver", "drew@logitrack.example", "driver", ""},
		{"USR-005", "Casey Customer", "casey@logitrack.example", "customer", ""},
	}
	for _, u := range users {
		if _, err := database.Exec(
			"INSERT INTO users (id, name, email, role, push_token, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			u.id, u.name, u.email, u.role, nullString(u.pushToken), now,
		); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}

	shipments := []struct{ id, tracking, status, customer string }{
		{"SHIP-001", "LT100000001", "in_transit", "USR-005"},
		{"SHIP-002", "LT100000002", "delayed", "USR-005"},
		{"SHIP-003", "LT100000003", "pending", ""},
	}
	for _, s := range shipments {
		if _, err := database.Exec(
			"INSERT INTO shipments (id, tracking_number, status, customer_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			s.id, s.tracking, s.status, nullString(s.customer), now, now,
		); err != nil {
			return fmt.Errorf("seed shipments: %w", err)
		}
	}

	issues := []struct{ id, shipment, issueType, status, desc string }{
		{"ISSUE-001", "SHIP-001", "damaged", "open", "Pallet crushed at cross-dock"},
		{"ISSUE-002", "SHIP-002", "delayed", "in_progress", "Missed linehaul departure"},
	}
	for _, i := range issues {
		if _, err := database.Exec(
			"INSERT INTO delivery_issues (id, shipment_id, issue_type, status, description, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			i.id, i.shipment, i.issueType, i.status, i.desc, now,
		); err != nil {
			return fmt.Errorf("seed delivery issues: %w", err)
		}
	}

	contacts := []struct {
		id, user    string
		position    int
		contactType string
		timeout     int
	}{
		{"CONT-001", "USR-003", 1, "email", 300},
		{"CONT-002", "USR-002", 2, "phone", 600},
		{"CONT-003", "USR-001", 3, "push", 900},
	}
	for _, c := range contacts {
		if _, err := database.Exec(
			"INSERT INTO escalation_contacts (id, user_id, position, contact_type, timeout_seconds, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?)",
			c.id, c.user, c.position, c.contactType, c.timeout, now, now,
		); err != nil {
			return fmt.Errorf("seed escalation contacts: %w", err)
		}
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
