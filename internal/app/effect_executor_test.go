package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/example/logitrack/internal/core/effects"
	"github.com/example/logitrack/internal/ports/secondary"
)

func TestDefaultEffectExecutor_NotifyFansOutToEveryPublisher(t *testing.T) {
	ws := &recordingPublisher{name: "websocket"}
	bus := &recordingPublisher{name: "kafka", err: errors.New("broker down")}
	exec := NewEffectExecutor(nil, time.Second, nil, nil)
	exec.publishers = append(exec.publishers, ws, bus)

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.NotifyEffect{Channel: "escalations", Event: "escalation.triggered", Payload: map[string]any{"id": "ELOG-0001"}},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	exec.Wait()

	if len(ws.events) != 1 || len(bus.events) != 1 {
		t.Fatalf("events: websocket=%d kafka=%d", len(ws.events), len(bus.events))
	}
	event := ws.events[0]
	if event.Name != "escalation.triggered" || event.Channel != "escalations" || event.ID == "" {
		t.Errorf("unexpected event: %+v", event)
	}
	var data map[string]any
	if err := json.Unmarshal(event.Data, &data); err != nil {
		t.Fatalf("event data is not JSON: %v", err)
	}
	if data["id"] != "ELOG-0001" {
		t.Errorf("data = %v", data)
	}
	if bus.events[0].ID != event.ID {
		t.Error("every sink should receive the same event envelope")
	}
}

func TestDefaultEffectExecutor_PagesByContactType(t *testing.T) {
	email := &recordingPager{contactType: "email"}
	push := &recordingPager{contactType: "push", err: errors.New("invalid token")}
	exec := NewEffectExecutor(nil, time.Second, nil, nil)
	exec.pagers["email"] = email
	exec.pagers["push"] = push

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.PageEffect{ContactType: "email", ContactID: "CONT-001", Email: "a@x", Subject: "s", Body: "b"},
		effects.PageEffect{ContactType: "push", ContactID: "CONT-003", PushToken: "tok"},
		effects.PageEffect{ContactType: "phone", ContactID: "CONT-002"}, // no pager configured
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	exec.Wait()

	if len(email.pages) != 1 || email.pages[0].Email != "a@x" || email.pages[0].Subject != "s" {
		t.Errorf("unexpected email pages: %+v", email.pages)
	}
	if len(push.pages) != 1 {
		t.Errorf("expected push attempt despite failure, got %d", len(push.pages))
	}
}

func TestDefaultEffectExecutor_OutlivesCallerContext(t *testing.T) {
	slow := &blockingPublisher{release: make(chan struct{})}
	exec := NewEffectExecutor(nil, time.Second, nil, nil)
	exec.publishers = append(exec.publishers, slow)

	ctx, cancel := context.WithCancel(context.Background())
	if err := exec.Execute(ctx, []effects.Effect{effects.NotifyEffect{Channel: "escalations", Event: "escalation.advanced"}}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	cancel()
	close(slow.release)
	exec.Wait()

	if slow.ctxErr != nil {
		t.Errorf("delivery context was cancelled with the caller: %v", slow.ctxErr)
	}
}

func TestDefaultEffectExecutor_UnknownEffect(t *testing.T) {
	exec := NewEffectExecutor(nil, time.Second, nil, nil)

	err := exec.Execute(context.Background(), []effects.Effect{unknownEffect{}})
	if err == nil {
		t.Fatal("expected error for unknown effect")
	}
}

func TestDefaultEffectExecutor_CompositeAndNoEffect(t *testing.T) {
	pub := &recordingPublisher{name: "websocket"}
	exec := NewEffectExecutor(nil, time.Second, nil, nil)
	exec.publishers = append(exec.publishers, pub)

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.NoEffect{},
		effects.LogEffect{Level: "info", Message: "planned", Fields: map[string]any{"k": "v"}},
		effects.CompositeEffect{Effects: []effects.Effect{
			effects.NotifyEffect{Channel: "escalations", Event: "escalation.acknowledged"},
		}},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	exec.Wait()

	if len(pub.events) != 1 {
		t.Errorf("expected composite notify to publish, got %d events", len(pub.events))
	}
}

type unknownEffect struct{}

func (unknownEffect) EffectType() string { return "unknown" }

type blockingPublisher struct {
	release chan struct{}
	ctxErr  error
}

func (p *blockingPublisher) Publish(ctx context.Context, _ secondary.Event) error {
	<-p.release
	p.ctxErr = ctx.Err()
	return nil
}

func (p *blockingPublisher) Name() string { return "blocking" }
