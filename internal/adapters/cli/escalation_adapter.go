// Package cli holds thin adapters that translate CLI operations to service calls
// and render the results for a terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/logitrack/internal/ports/primary"
)

// EscalationAdapter is a thin adapter that translates CLI operations to EscalationService calls.
// It depends only on the EscalationService interface, enabling easy testing with mocks.
type EscalationAdapter struct {
	service primary.EscalationService
	out     io.Writer
}

// NewEscalationAdapter creates a new EscalationAdapter with the given service.
func NewEscalationAdapter(service primary.EscalationService, out io.Writer) *EscalationAdapter {
	return &EscalationAdapter{
		service: service,
		out:     out,
	}
}

// Trigger starts an escalation and prints who was paged.
func (a *EscalationAdapter) Trigger(ctx context.Context, req primary.TriggerEscalationRequest) (*primary.EscalationLog, error) {
	log, err := a.service.TriggerEscalation(ctx, req)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "✓ Escalation triggered for %s\n", log.ShipmentID)
	a.printAddressee(log)
	return log, nil
}

// Advance moves the escalation to the next contact.
func (a *EscalationAdapter) Advance(ctx context.Context, req primary.AdvanceEscalationRequest) (*primary.EscalationLog, error) {
	log, err := a.service.AdvanceEscalation(ctx, req)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "✓ Escalation for %s advanced to attempt %d\n", log.ShipmentID, log.AttemptNumber)
	a.printAddressee(log)
	return log, nil
}

// Acknowledge closes the escalation.
func (a *EscalationAdapter) Acknowledge(ctx context.Context, req primary.AcknowledgeEscalationRequest) (*primary.EscalationLog, error) {
	log, err := a.service.AcknowledgeEscalation(ctx, req)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "✓ Escalation for %s acknowledged via %s\n", log.ShipmentID, log.AckMethod)
	if req.Notes != "" {
		fmt.Fprintf(a.out, "  Notes: %s\n", req.Notes)
	}
	return log, nil
}

// History prints every log row for a shipment, newest first.
func (a *EscalationAdapter) History(ctx context.Context, shipmentID string, actor primary.Actor) ([]*primary.EscalationLog, error) {
	logs, err := a.service.GetEscalationHistory(ctx, shipmentID, actor)
	if err != nil {
		return nil, err
	}

	if len(logs) == 0 {
		fmt.Fprintf(a.out, "No escalations recorded for %s.\n", shipmentID)
		return logs, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tATTEMPT\tEVENT\tCONTACT\tACK\tCREATED")
	fmt.Fprintln(w, "--\t-------\t-----\t-------\t---\t-------")

	for _, log := range logs {
		ack := "-"
		if log.AckReceived {
			ack = color.New(color.FgHiGreen).Sprint(log.AckMethod)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
			log.ID,
			log.AttemptNumber,
			eventColor(log.EventType).Sprint(log.EventType),
			contactLabel(log.Contact, log.ContactID),
			ack,
			log.CreatedAt.Format(time.RFC3339),
		)
	}

	w.Flush()
	return logs, nil
}

// Active prints every outstanding escalation with its timeout status.
func (a *EscalationAdapter) Active(ctx context.Context, actor primary.Actor) ([]*primary.ActiveEscalation, error) {
	active, err := a.service.ListActiveEscalations(ctx, actor)
	if err != nil {
		return nil, err
	}

	if len(active) == 0 {
		fmt.Fprintln(a.out, "No active escalations.")
		return active, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SHIPMENT\tATTEMPT\tCONTACT\tSINCE\tDUE")
	fmt.Fprintln(w, "--------\t-------\t-------\t-----\t---")

	for _, item := range active {
		due := "-"
		if item.DueAt != nil {
			due = item.DueAt.Format(time.RFC3339)
		}
		if item.Overdue {
			due = color.New(color.FgRed).Sprintf("%s (overdue)", due)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			item.Log.ShipmentID,
			item.Log.AttemptNumber,
			contactLabel(item.Log.Contact, item.Log.ContactID),
			item.Log.CreatedAt.Format(time.RFC3339),
			due,
		)
	}

	w.Flush()
	return active, nil
}

func (a *EscalationAdapter) printAddressee(log *primary.EscalationLog) {
	fmt.Fprintf(a.out, "  Attempt: %d\n", log.AttemptNumber)
	fmt.Fprintf(a.out, "  Contact: %s\n", contactLabel(log.Contact, log.ContactID))
	if log.Contact != nil {
		fmt.Fprintf(a.out, "  Method:  %s\n", log.Contact.ContactType)
	}
}

func contactLabel(contact *primary.EscalationContact, fallback string) string {
	if contact == nil || contact.User == nil {
		return fallback
	}
	return fmt.Sprintf("%s (%s)", contact.User.Name, contact.ID)
}

func eventColor(eventType string) *color.Color {
	switch eventType {
	case "triggered":
		return color.New(color.FgYellow)
	case "advanced":
		return color.New(color.FgRed)
	case "acknowledged":
		return color.New(color.FgHiGreen)
	}
	return color.New(color.Reset)
}
