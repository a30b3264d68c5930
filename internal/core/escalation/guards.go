package escalation

import "fmt"

// Guard failure kinds. The application layer maps them onto its error taxonomy.
const (
	KindNotFound   = "not_found"
	KindForbidden  = "forbidden"
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

// TriggerContext provides context for trigger guards.
type TriggerContext struct {
	ShipmentID         string
	ShipmentExists     bool
	DeliveryIssueID    string // Empty when the escalation is not tied to an issue
	IssueExists        bool
	IssueShipmentID    string
	HasActiveChain     bool
	ActiveContactCount int
}

// AdvanceContext provides context for advance guards.
type AdvanceContext struct {
	ShipmentID     string
	HasOutstanding bool
	HasNextContact bool
}

// AcknowledgeContext provides context for acknowledge guards.
type AcknowledgeContext struct {
	ShipmentID      string
	HasOutstanding  bool
	AddresseeUserID string
	CallerUserID    string
}

// CanTrigger evaluates whether an escalation can be triggered.
// Rules:
// - Shipment must exist
// - A referenced delivery issue must exist and belong to the shipment
// - Shipment must be Idle (one active chain per shipment)
// - At least one active contact must exist
func CanTrigger(ctx TriggerContext) GuardResult {
	// Rule 1: Shipment must exist
	if !ctx.ShipmentExists {
		return GuardResult{
			Reason: fmt.Sprintf("shipment %s not found", ctx.ShipmentID),
			Kind:   KindNotFound,
		}
	}

	// Rule 2: Delivery issue reference
	if ctx.DeliveryIssueID != "" {
		if !ctx.IssueExists {
			return GuardResult{
				Reason: fmt.Sprintf("delivery issue %s not found", ctx.DeliveryIssueID),
				Kind:   KindNotFound,
			}
		}
		if ctx.IssueShipmentID != ctx.ShipmentID {
			return GuardResult{
				Reason: fmt.Sprintf("delivery issue %s does not belong to shipment %s", ctx.DeliveryIssueID, ctx.ShipmentID),
				Kind:   KindValidation,
			}
		}
	}

	// Rule 3: Shipment must be Idle
	if ctx.HasActiveChain {
		return GuardResult{
			Reason: fmt.Sprintf("escalation already active for shipment %s", ctx.ShipmentID),
			Kind:   KindConflict,
		}
	}

	// Rule 4: Ladder must not be empty
	if ctx.ActiveContactCount == 0 {
		return GuardResult{
			Reason: "no active escalation contacts found",
			Kind:   KindNotFound,
		}
	}

	return GuardResult{Allowed: true}
}

// CanAdvance evaluates whether an active escalation can move up the ladder.
// Rules:
// - An outstanding row must exist
// - A higher-position active contact must exist
func CanAdvance(ctx AdvanceContext) GuardResult {
	if !ctx.HasOutstanding {
		return GuardResult{
			Reason: fmt.Sprintf("no active escalation found for shipment %s", ctx.ShipmentID),
			Kind:   KindNotFound,
		}
	}

	// Exhaustion leaves the chain Active at its current rung
	if !ctx.HasNextContact {
		return GuardResult{
			Reason: "no higher level escalation contact available",
			Kind:   KindNotFound,
		}
	}

	return GuardResult{Allowed: true}
}

// CanAcknowledge evaluates whether the caller can acknowledge the active escalation.
// Rules:
// - An outstanding row must exist
// - Caller must be the user bound to the outstanding row's contact
func CanAcknowledge(ctx AcknowledgeContext) GuardResult {
	if !ctx.HasOutstanding {
		return GuardResult{
			Reason: fmt.Sprintf("no active escalation found for shipment %s", ctx.ShipmentID),
			Kind:   KindNotFound,
		}
	}

	if ctx.CallerUserID == "" || ctx.CallerUserID != ctx.AddresseeUserID {
		return GuardResult{
			Reason: "you are not authorized to acknowledge this escalation",
			Kind:   KindForbidden,
		}
	}

	return GuardResult{Allowed: true}
}
