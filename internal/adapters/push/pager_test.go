package push

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/example/logitrack/internal/config"
	"github.com/example/logitrack/internal/ports/secondary"
)

type fakeMessenger struct {
	sent []*messaging.Message
	err  error
}

func (m *fakeMessenger) Send(_ context.Context, message *messaging.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, message)
	return "projects/logitrack/messages/1", nil
}

func TestPager_Page(t *testing.T) {
	m := &fakeMessenger{}
	p := newPager(m, zaptest.NewLogger(t))
	assert.Equal(t, "push", p.ContactType())

	err := p.Page(context.Background(), secondary.Page{
		ContactID:     "CONT-003",
		UserID:        "USR-001",
		PushToken:     "fcm-token-ada",
		ShipmentID:    "SHIP-001",
		AttemptNumber: 3,
		Subject:       "Escalation",
		Body:          "Still unresolved",
	})
	require.NoError(t, err)

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "fcm-token-ada", msg.Token)
	assert.Equal(t, "Escalation", msg.Notification.Title)
	assert.Equal(t, "3", msg.Data["attemptNumber"])
	assert.Equal(t, "SHIP-001", msg.Data["shipmentId"])
}

func TestPager_NoToken(t *testing.T) {
	m := &fakeMessenger{}
	p := newPager(m, zaptest.NewLogger(t))

	err := p.Page(context.Background(), secondary.Page{UserID: "USR-002"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USR-002")
	assert.Empty(t, m.sent)
}

func TestPager_SendError(t *testing.T) {
	p := newPager(&fakeMessenger{err: errors.New("registration-token-not-registered")}, zaptest.NewLogger(t))

	err := p.Page(context.Background(), secondary.Page{UserID: "USR-001", PushToken: "stale"})
	assert.ErrorContains(t, err, "registration-token-not-registered")
}

func TestNewPager_RequiresCredentials(t *testing.T) {
	_, err := NewPager(context.Background(), config.PushConfig{}, nil)
	assert.Error(t, err)
}
