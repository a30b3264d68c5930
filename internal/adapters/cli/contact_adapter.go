package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/logitrack/internal/ports/primary"
)

// ContactAdapter translates CLI operations to ContactService calls.
type ContactAdapter struct {
	service primary.ContactService
	out     io.Writer
}

// NewContactAdapter creates a new ContactAdapter with the given service.
func NewContactAdapter(service primary.ContactService, out io.Writer) *ContactAdapter {
	return &ContactAdapter{
		service: service,
		out:     out,
	}
}

// List prints the ladder in position order.
func (a *ContactAdapter) List(ctx context.Context, activeOnly bool) ([]*primary.EscalationContact, error) {
	contacts, err := a.service.ListContacts(ctx, primary.ContactFilters{ActiveOnly: activeOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	if len(contacts) == 0 {
		fmt.Fprintln(a.out, "No escalation contacts found.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Add the first rung of the ladder:")
		fmt.Fprintln(a.out, "  logitrack contact add --user USR-003 --position 1 --type email --timeout 300 --as USR-001")
		return contacts, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "POS\tID\tUSER\tTYPE\tTIMEOUT\tSTATUS")
	fmt.Fprintln(w, "---\t--\t----\t----\t-------\t------")

	for _, c := range contacts {
		status := color.New(color.FgHiGreen).Sprint("active")
		if !c.IsActive {
			status = color.New(color.FgHiBlack).Sprint("inactive")
		}
		user := c.UserID
		if c.User != nil {
			user = fmt.Sprintf("%s (%s)", c.User.Name, c.UserID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%ds\t%s\n",
			c.Position,
			c.ID,
			user,
			c.ContactType,
			c.TimeoutSeconds,
			status,
		)
	}

	w.Flush()
	return contacts, nil
}

// Add creates a rung.
func (a *ContactAdapter) Add(ctx context.Context, req primary.CreateContactRequest) (*primary.EscalationContact, error) {
	contact, err := a.service.CreateContact(ctx, req)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(a.out, "✓ Contact %s added at position %d\n", contact.ID, contact.Position)
	fmt.Fprintf(a.out, "  User:    %s\n", contact.UserID)
	fmt.Fprintf(a.out, "  Method:  %s\n", contact.ContactType)
	fmt.Fprintf(a.out, "  Timeout: %ds\n", contact.TimeoutSeconds)
	return contact, nil
}

// SetActive activates or deactivates a rung.
func (a *ContactAdapter) SetActive(ctx context.Context, req primary.SetContactActiveRequest) (*primary.EscalationContact, error) {
	contact, err := a.service.SetContactActive(ctx, req)
	if err != nil {
		return nil, err
	}

	state := "deactivated"
	if contact.IsActive {
		state = "activated"
	}
	fmt.Fprintf(a.out, "✓ Contact %s %s\n", contact.ID, state)
	return contact, nil
}
