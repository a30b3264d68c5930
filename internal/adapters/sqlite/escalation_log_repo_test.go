package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/example/logitrack/internal/adapters/sqlite"
	"github.com/example/logitrack/internal/ports/secondary"
)

// setupEscalation seeds a shipment, an issue, the three-rung ladder and an
// active chain ECH-001.
func setupEscalation(t *testing.T) (*sql.DB, *sqlite.EscalationLogRepository) {
	t.Helper()
	db := setupTestDB(t)
	seedShipment(t, db, "SHIP-001", "LT-0001")
	seedDeliveryIssue(t, db, "ISSUE-001", "SHIP-001")
	seedLadder(t, db)
	seedChain(t, db, "ECH-001", "SHIP-001")
	return db, sqlite.NewEscalationLogRepository(db)
}

func appendLog(t *testing.T, repo *sqlite.EscalationLogRepository, id, contactID string, attempt int, eventType string, createdAt time.Time) *secondary.EscalationLogRecord {
	t.Helper()
	record := &secondary.EscalationLogRecord{
		ID:              id,
		ChainID:         "ECH-001",
		ShipmentID:      "SHIP-001",
		DeliveryIssueID: "ISSUE-001",
		ContactID:       contactID,
		AttemptNumber:   attempt,
		EventType:       eventType,
		Payload:         map[string]any{"reason": "Driver unreachable"},
		CreatedAt:       createdAt,
	}
	if err := repo.Append(context.Background(), record); err != nil {
		t.Fatalf("Append %s failed: %v", id, err)
	}
	return record
}

func TestEscalationLogRepository_AppendAndGet(t *testing.T) {
	_, repo := setupEscalation(t)
	ctx := context.Background()

	record := appendLog(t, repo, "ELOG-0001", "CONT-001", 1, "triggered", time.Now().UTC())
	if record.Seq == 0 {
		t.Error("expected Seq to be assigned")
	}

	got, err := repo.GetByID(ctx, "ELOG-0001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AttemptNumber != 1 {
		t.Errorf("AttemptNumber = %d, want 1", got.AttemptNumber)
	}
	if got.EventType != "triggered" {
		t.Errorf("EventType = %q, want triggered", got.EventType)
	}
	if got.AckReceived {
		t.Error("expected AckReceived = false")
	}
	if got.Payload["reason"] != "Driver unreachable" {
		t.Errorf("Payload[reason] = %v", got.Payload["reason"])
	}
	if got.Contact == nil || got.Contact.UserID != "USR-001" || got.Contact.ContactType != "email" {
		t.Errorf("unexpected contact detail: %+v", got.Contact)
	}
	if got.Shipment == nil || got.Shipment.TrackingNumber != "LT-0001" {
		t.Errorf("unexpected shipment detail: %+v", got.Shipment)
	}
	if got.DeliveryIssue == nil || got.DeliveryIssue.IssueType != "damaged" {
		t.Errorf("unexpected delivery issue detail: %+v", got.DeliveryIssue)
	}

	if _, err := repo.GetByID(ctx, "ELOG-9999"); !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEscalationLogRepository_Append_DuplicateAttempt(t *testing.T) {
	_, repo := setupEscalation(t)

	appendLog(t, repo, "ELOG-0001", "CONT-001", 1, "triggered", time.Now().UTC())

	err := repo.Append(context.Background(), &secondary.EscalationLogRecord{
		ID:            "ELOG-0002",
		ChainID:       "ECH-001",
		ShipmentID:    "SHIP-001",
		ContactID:     "CONT-002",
		AttemptNumber: 1,
		EventType:     "advanced",
	})
	if !errors.Is(err, secondary.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestEscalationLogRepository_Outstanding(t *testing.T) {
	db, repo := setupEscalation(t)
	ctx := context.Background()
	chains := sqlite.NewEscalationChainRepository(db)

	now := time.Now().UTC()
	appendLog(t, repo, "ELOG-0001", "CONT-001", 1, "triggered", now)

	got, err := repo.Outstanding(ctx, "SHIP-001")
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if got.ID != "ELOG-0001" {
		t.Errorf("outstanding = %s, want ELOG-0001", got.ID)
	}

	appendLog(t, repo, "ELOG-0002", "CONT-002", 2, "advanced", now)
	if err := chains.SetHead(ctx, "ECH-001", 2); err != nil {
		t.Fatalf("SetHead failed: %v", err)
	}

	got, err = repo.Outstanding(ctx, "SHIP-001")
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if got.ID != "ELOG-0002" {
		t.Errorf("outstanding = %s, want ELOG-0002", got.ID)
	}

	all, err := repo.ListOutstanding(ctx)
	if err != nil {
		t.Fatalf("ListOutstanding failed: %v", err)
	}
	if len(all) != 1 || all[0].ID != "ELOG-0002" {
		t.Errorf("ListOutstanding returned %d rows", len(all))
	}

	if err := chains.Close(ctx, "ECH-001", now); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := repo.Outstanding(ctx, "SHIP-001"); !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("expected ErrNotFound after close, got %v", err)
	}
}

func TestEscalationLogRepository_ListByShipment(t *testing.T) {
	_, repo := setupEscalation(t)
	ctx := context.Background()

	// Identical timestamps: insertion order must still decide.
	same := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	appendLog(t, repo, "ELOG-0001", "CONT-001", 1, "triggered", same)
	appendLog(t, repo, "ELOG-0002", "CONT-002", 2, "advanced", same)
	appendLog(t, repo, "ELOG-0003", "CONT-003", 3, "advanced", same)

	logs, err := repo.ListByShipment(ctx, "SHIP-001")
	if err != nil {
		t.Fatalf("ListByShipment failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(logs))
	}
	for i, want := range []int{3, 2, 1} {
		if logs[i].AttemptNumber != want {
			t.Errorf("logs[%d].AttemptNumber = %d, want %d", i, logs[i].AttemptNumber, want)
		}
	}

	none, err := repo.ListByShipment(ctx, "SHIP-404")
	if err != nil {
		t.Fatalf("ListByShipment failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no rows, got %d", len(none))
	}
}

func TestEscalationLogRepository_MarkAcknowledged(t *testing.T) {
	_, repo := setupEscalation(t)
	ctx := context.Background()

	appendLog(t, repo, "ELOG-0001", "CONT-001", 1, "triggered", time.Now().UTC())

	at := time.Now().UTC()
	if err := repo.MarkAcknowledged(ctx, "ELOG-0001", "phone", at); err != nil {
		t.Fatalf("MarkAcknowledged failed: %v", err)
	}

	got, _ := repo.GetByID(ctx, "ELOG-0001")
	if !got.AckReceived {
		t.Error("expected AckReceived = true")
	}
	if got.AckMethod != "phone" {
		t.Errorf("AckMethod = %q, want phone", got.AckMethod)
	}
	if got.AcknowledgedAt == nil {
		t.Fatal("expected AcknowledgedAt to be set")
	}
	if got.EventType != "triggered" {
		t.Errorf("EventType changed to %q", got.EventType)
	}

	if err := repo.MarkAcknowledged(ctx, "ELOG-0001", "email", at); !errors.Is(err, secondary.ErrNotFound) {
		t.Errorf("second ack: expected ErrNotFound, got %v", err)
	}
}

func TestEscalationLogRepository_RowsAreImmutable(t *testing.T) {
	db, repo := setupEscalation(t)

	appendLog(t, repo, "ELOG-0001", "CONT-001", 1, "triggered", time.Now().UTC())

	if _, err := db.Exec("UPDATE escalation_logs SET contact_id = 'CONT-002' WHERE id = 'ELOG-0001'"); err == nil {
		t.Error("expected trigger to reject contact_id update")
	}
	if _, err := db.Exec("UPDATE escalation_logs SET attempt_number = 5 WHERE id = 'ELOG-0001'"); err == nil {
		t.Error("expected trigger to reject attempt_number update")
	}
}

func TestEscalationLogRepository_GetNextID(t *testing.T) {
	_, repo := setupEscalation(t)
	ctx := context.Background()

	id, err := repo.GetNextID(ctx)
	if err != nil {
		t.Fatalf("GetNextID failed: %v", err)
	}
	if id != "ELOG-0001" {
		t.Errorf("expected ELOG-0001, got %s", id)
	}

	appendLog(t, repo, id, "CONT-001", 1, "triggered", time.Now().UTC())

	id, _ = repo.GetNextID(ctx)
	if id != "ELOG-0002" {
		t.Errorf("expected ELOG-0002, got %s", id)
	}
}
