package contact

import "fmt"

// Guard failure kinds. The application layer maps them onto its error taxonomy.
const (
	KindNotFound   = "not_found"
	KindValidation = "validation"
	KindConflict   = "conflict"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CreateContactContext provides context for contact creation guards.
type CreateContactContext struct {
	UserID         string
	UserExists     bool
	Position       int
	PositionTaken  bool
	ContactType    string
	TimeoutSeconds int
}

// SetActiveContext provides context for activate/deactivate guards.
type SetActiveContext struct {
	ContactID     string
	ContactExists bool
}

// CanCreateContact evaluates whether a ladder rung can be created.
// Rules:
// - User must exist
// - Position must be positive and unused
// - Contact type must be email, phone or push
// - Timeout must not be negative
func CanCreateContact(ctx CreateContactContext) GuardResult {
	if !ctx.UserExists {
		return GuardResult{
			Reason: fmt.Sprintf("user %s not found", ctx.UserID),
			Kind:   KindNotFound,
		}
	}

	if ctx.Position <= 0 {
		return GuardResult{
			Reason: fmt.Sprintf("position must be positive (got %d)", ctx.Position),
			Kind:   KindValidation,
		}
	}

	if !IsValidType(ctx.ContactType) {
		return GuardResult{
			Reason: fmt.Sprintf("invalid contact type %q (must be email, phone or push)", ctx.ContactType),
			Kind:   KindValidation,
		}
	}

	if ctx.TimeoutSeconds < 0 {
		return GuardResult{
			Reason: fmt.Sprintf("timeout must not be negative (got %d)", ctx.TimeoutSeconds),
			Kind:   KindValidation,
		}
	}

	// Positions are never reused so history keeps a stable ordering
	if ctx.PositionTaken {
		return GuardResult{
			Reason: fmt.Sprintf("position %d is already taken", ctx.Position),
			Kind:   KindConflict,
		}
	}

	return GuardResult{Allowed: true}
}

// CanSetActive evaluates whether a contact can be activated or deactivated.
// Rules:
// - Contact must exist
func CanSetActive(ctx SetActiveContext) GuardResult {
	if !ctx.ContactExists {
		return GuardResult{
			Reason: fmt.Sprintf("contact %s not found", ctx.ContactID),
			Kind:   KindNotFound,
		}
	}
	return GuardResult{Allowed: true}
}
