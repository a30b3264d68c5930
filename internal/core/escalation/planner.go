package escalation

import (
	"fmt"

	"github.com/example/logitrack/internal/core/effects"
)

// AddresseeInput describes the contact a row is addressed to.
type AddresseeInput struct {
	ContactID      string
	ContactType    string
	TimeoutSeconds int
	UserID         string
	UserName       string
	Email          string
	PushToken      string
}

// NotifyPlanInput contains the inputs needed to plan post-commit notifications.
// All values are pre-fetched by the caller - no I/O in the planner.
type NotifyPlanInput struct {
	EventType      string
	ShipmentID     string
	TrackingNumber string
	AttemptNumber  int
	Reason         string
	Addressee      AddresseeInput
	Payload        any // The full updated log row published to subscribers
}

// NotifyPlan represents the effects to run once a transition has committed.
type NotifyPlan struct {
	Notify effects.NotifyEffect
	Pages  []effects.PageEffect
}

// Effects returns all effects as a flat slice for execution.
func (p NotifyPlan) Effects() []effects.Effect {
	result := make([]effects.Effect, 0, 1+len(p.Pages))
	result = append(result, p.Notify)
	for _, e := range p.Pages {
		result = append(result, e)
	}
	return result
}

// GenerateNotifyPlan plans the fan-out for a committed transition.
// Subscribers always receive the event. The addressee is paged only when a
// row asks them to act (triggered or advanced).
func GenerateNotifyPlan(input NotifyPlanInput) NotifyPlan {
	plan := NotifyPlan{
		Notify: effects.NotifyEffect{
			Channel: Channel,
			Event:   EventName(input.EventType),
			Payload: input.Payload,
		},
	}

	if input.EventType == EventTypeAcknowledged {
		return plan
	}

	shipmentLabel := input.TrackingNumber
	if shipmentLabel == "" {
		shipmentLabel = input.ShipmentID
	}

	subject := fmt.Sprintf("[Escalation] Shipment %s needs attention (attempt %d)", shipmentLabel, input.AttemptNumber)
	body := fmt.Sprintf("Escalation attempt %d for shipment %s has been assigned to you.", input.AttemptNumber, shipmentLabel)
	if input.Reason != "" {
		body += fmt.Sprintf("\nReason: %s", input.Reason)
	}
	if input.Addressee.TimeoutSeconds > 0 {
		body += fmt.Sprintf("\nPlease acknowledge within %d seconds.", input.Addressee.TimeoutSeconds)
	}

	plan.Pages = append(plan.Pages, effects.PageEffect{
		ContactType:   input.Addressee.ContactType,
		ContactID:     input.Addressee.ContactID,
		UserID:        input.Addressee.UserID,
		UserName:      input.Addressee.UserName,
		Email:         input.Addressee.Email,
		PushToken:     input.Addressee.PushToken,
		ShipmentID:    input.ShipmentID,
		AttemptNumber: input.AttemptNumber,
		Subject:       subject,
		Body:          body,
	})

	return plan
}
