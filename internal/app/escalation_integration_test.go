package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/example/logitrack/internal/adapters/sqlite"
	"github.com/example/logitrack/internal/app"
	"github.com/example/logitrack/internal/db"
	"github.com/example/logitrack/internal/ports/primary"
)

// TestEscalationService_SQLiteConcurrentTriggers races triggers through real
// BEGIN IMMEDIATE transactions on a file database.
func TestEscalationService_SQLiteConcurrentTriggers(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "logitrack.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := db.SeedFixtures(database); err != nil {
		t.Fatalf("SeedFixtures failed: %v", err)
	}

	svc := app.NewEscalationService(sqlite.NewTransactor(database), sqlite.NewRepositories(database), nil, nil)
	dispatcher := primary.Actor{UserID: "USR-003", Role: "dispatcher"}

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.TriggerEscalation(context.Background(), primary.TriggerEscalationRequest{
				ShipmentID: "SHIP-001", DeliveryIssueID: "ISSUE-001", Reason: "race", Actor: dispatcher,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, primary.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || conflicts != callers-1 {
		t.Fatalf("successes = %d, conflicts = %d", successes, conflicts)
	}

	history, err := svc.GetEscalationHistory(context.Background(), "SHIP-001", dispatcher)
	if err != nil {
		t.Fatalf("GetEscalationHistory failed: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected exactly one row, got %d", len(history))
	}
}

func TestEscalationService_SQLiteLadderWalk(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.SeedFixtures(database); err != nil {
		t.Fatalf("SeedFixtures failed: %v", err)
	}

	svc := app.NewEscalationService(sqlite.NewTransactor(database), sqlite.NewRepositories(database), nil, nil)
	ctx := context.Background()
	manager := primary.Actor{UserID: "USR-002", Role: "manager"}
	admin := primary.Actor{UserID: "USR-001", Role: "admin"}

	if _, err := svc.TriggerEscalation(ctx, primary.TriggerEscalationRequest{ShipmentID: "SHIP-002", Reason: "Missed linehaul", Actor: admin}); err != nil {
		t.Fatalf("TriggerEscalation failed: %v", err)
	}
	advanced, err := svc.AdvanceEscalation(ctx, primary.AdvanceEscalationRequest{ShipmentID: "SHIP-002", Actor: manager})
	if err != nil {
		t.Fatalf("AdvanceEscalation failed: %v", err)
	}
	if advanced.ContactID != "CONT-002" || advanced.AttemptNumber != 2 {
		t.Errorf("advanced row = %s attempt %d", advanced.ContactID, advanced.AttemptNumber)
	}

	acked, err := svc.AcknowledgeEscalation(ctx, primary.AcknowledgeEscalationRequest{ShipmentID: "SHIP-002", Method: "phone", Actor: manager})
	if err != nil {
		t.Fatalf("AcknowledgeEscalation failed: %v", err)
	}
	if !acked.AckReceived || acked.ID != advanced.ID {
		t.Errorf("unexpected acknowledged row: %+v", acked)
	}

	active, err := svc.ListActiveEscalations(ctx, manager)
	if err != nil {
		t.Fatalf("ListActiveEscalations failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active escalations, got %d", len(active))
	}

	acks, err := sqlite.NewAcknowledgmentRepository(database).ListByShipment(ctx, "SHIP-002")
	if err != nil {
		t.Fatalf("ListByShipment failed: %v", err)
	}
	if len(acks) != 1 || acks[0].UserID != "USR-002" {
		t.Errorf("unexpected receipts: %+v", acks)
	}
}
