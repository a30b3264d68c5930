// Package escalation contains the pure business logic for the escalation ladder.
// This is part of the Functional Core - no I/O, only pure functions.
//
// A shipment is Idle when it has no active chain, and Active(contact, attempt)
// while a chain is outstanding. Trigger moves Idle to Active(first, 1), advance
// moves Active(c, n) to Active(next, n+1) and acknowledge moves Active back to Idle.
package escalation

import "time"

// Log event types.
const (
	EventTypeTriggered    = "triggered"
	EventTypeAdvanced     = "advanced"
	EventTypeAcknowledged = "acknowledged"
)

// Published event names. These are part of the subscriber contract.
const (
	EventTriggered    = "escalation.triggered"
	EventAdvanced     = "escalation.advanced"
	EventAcknowledged = "escalation.acknowledged"
)

// Channel is the pub/sub channel every escalation event is published on.
const Channel = "escalations"

// Chain statuses.
const (
	ChainActive       = "active"
	ChainAcknowledged = "acknowledged"
)

// AdvanceReason is recorded on every advanced row.
const AdvanceReason = "Timeout or manual advancement"

// State is the derived per-shipment escalation state.
type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
)

// StateOf derives the shipment state from whether an outstanding row exists.
func StateOf(hasOutstanding bool) State {
	if hasOutstanding {
		return StateActive
	}
	return StateIdle
}

// EventName maps a log event type onto its published event name.
func EventName(eventType string) string {
	switch eventType {
	case EventTypeTriggered:
		return EventTriggered
	case EventTypeAdvanced:
		return EventAdvanced
	case EventTypeAcknowledged:
		return EventAcknowledged
	}
	return ""
}

// InitialAttempt is the attempt number of a freshly triggered chain.
func InitialAttempt() int {
	return 1
}

// NextAttempt returns the attempt number following current.
func NextAttempt(current int) int {
	return current + 1
}

// TriggerPayload builds the payload recorded on a triggered row.
func TriggerPayload(reason, triggeredBy string) map[string]any {
	return map[string]any{
		"reason":      reason,
		"triggeredBy": triggeredBy,
	}
}

// AdvancePayload builds the payload recorded on an advanced row.
func AdvancePayload(previousContactID, advancedBy string) map[string]any {
	payload := map[string]any{
		"previousContact": previousContactID,
		"reason":          AdvanceReason,
	}
	if advancedBy != "" {
		payload["advancedBy"] = advancedBy
	}
	return payload
}

// IsOverdue reports whether a row addressed at createdAt has outlived the
// contact's timeout at now. A non-positive timeout never expires.
func IsOverdue(createdAt time.Time, timeoutSeconds int, now time.Time) bool {
	if timeoutSeconds <= 0 {
		return false
	}
	return now.Sub(createdAt) > time.Duration(timeoutSeconds)*time.Second
}
