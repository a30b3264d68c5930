package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/logitrack/internal/ports/primary"
)

// mockContactService implements primary.ContactService for testing
type mockContactService struct {
	listFn      func(ctx context.Context, filters primary.ContactFilters) ([]*primary.EscalationContact, error)
	createFn    func(ctx context.Context, req primary.CreateContactRequest) (*primary.EscalationContact, error)
	setActiveFn func(ctx context.Context, req primary.SetContactActiveRequest) (*primary.EscalationContact, error)

	lastFilters primary.ContactFilters
}

func (m *mockContactService) ListActive(ctx context.Context) ([]*primary.EscalationContact, error) {
	return m.ListContacts(ctx, primary.ContactFilters{ActiveOnly: true})
}

func (m *mockContactService) NextAfter(ctx context.Context, position int) (*primary.EscalationContact, error) {
	return nil, errors.New("not implemented in mock")
}

func (m *mockContactService) ListContacts(ctx context.Context, filters primary.ContactFilters) ([]*primary.EscalationContact, error) {
	m.lastFilters = filters
	if m.listFn != nil {
		return m.listFn(ctx, filters)
	}
	return []*primary.EscalationContact{}, nil
}

func (m *mockContactService) CreateContact(ctx context.Context, req primary.CreateContactRequest) (*primary.EscalationContact, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return &primary.EscalationContact{
		ID:             "CONT-004",
		UserID:         req.UserID,
		Position:       req.Position,
		ContactType:    req.ContactType,
		TimeoutSeconds: req.TimeoutSeconds,
		IsActive:       true,
	}, nil
}

func (m *mockContactService) SetContactActive(ctx context.Context, req primary.SetContactActiveRequest) (*primary.EscalationContact, error) {
	if m.setActiveFn != nil {
		return m.setActiveFn(ctx, req)
	}
	return &primary.EscalationContact{ID: req.ContactID, IsActive: req.Active}, nil
}

func TestContactAdapter_List(t *testing.T) {
	mock := &mockContactService{
		listFn: func(ctx context.Context, filters primary.ContactFilters) ([]*primary.EscalationContact, error) {
			return []*primary.EscalationContact{
				{ID: "CONT-001", UserID: "USR-003", Position: 1, ContactType: "email", TimeoutSeconds: 300, IsActive: true,
					User: &primary.UserSummary{ID: "USR-003", Name: "Dana Dispatcher"}},
				{ID: "CONT-002", UserID: "USR-002", Position: 2, ContactType: "phone", TimeoutSeconds: 600, IsActive: false},
			}, nil
		},
	}
	var buf bytes.Buffer
	adapter := NewContactAdapter(mock, &buf)

	contacts, err := adapter.List(context.Background(), true)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(contacts) != 2 {
		t.Errorf("expected 2 contacts, got %d", len(contacts))
	}
	if !mock.lastFilters.ActiveOnly {
		t.Error("expected active-only filter to be passed through")
	}
	output := buf.String()
	for _, want := range []string{"CONT-001", "Dana Dispatcher", "300s", "inactive"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got '%s'", want, output)
		}
	}
}

func TestContactAdapter_List_Empty(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewContactAdapter(&mockContactService{}, &buf)

	if _, err := adapter.List(context.Background(), false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "No escalation contacts found") {
		t.Errorf("expected empty message, got '%s'", buf.String())
	}
}

func TestContactAdapter_Add(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewContactAdapter(&mockContactService{}, &buf)

	contact, err := adapter.Add(context.Background(), primary.CreateContactRequest{
		UserID: "USR-004", Position: 4, ContactType: "push", TimeoutSeconds: 1200,
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if contact.Position != 4 {
		t.Errorf("expected position 4, got %d", contact.Position)
	}
	if !strings.Contains(buf.String(), "Contact CONT-004 added at position 4") {
		t.Errorf("expected confirmation, got '%s'", buf.String())
	}
}

func TestContactAdapter_SetActive(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewContactAdapter(&mockContactService{}, &buf)

	if _, err := adapter.SetActive(context.Background(), primary.SetContactActiveRequest{ContactID: "CONT-002", Active: false}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "Contact CONT-002 deactivated") {
		t.Errorf("expected deactivation message, got '%s'", buf.String())
	}
}

func TestContactAdapter_SetActive_Error(t *testing.T) {
	mock := &mockContactService{
		setActiveFn: func(ctx context.Context, req primary.SetContactActiveRequest) (*primary.EscalationContact, error) {
			return nil, primary.NewError(primary.ErrForbidden, "only admins may change the ladder")
		},
	}
	var buf bytes.Buffer
	adapter := NewContactAdapter(mock, &buf)

	_, err := adapter.SetActive(context.Background(), primary.SetContactActiveRequest{ContactID: "CONT-002"})
	if !errors.Is(err, primary.ErrForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}
