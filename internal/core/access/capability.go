// Package access contains the pure role model and capability check shared by
// every escalation operation. Guards are pure functions without side effects.
package access

import (
	"fmt"
	"slices"
	"strings"
)

// User roles known to the platform.
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleDispatcher = "dispatcher"
	RoleDriver     = "driver"
	RoleCustomer   = "customer"
)

// AllRoles lists every known role, most privileged first.
var AllRoles = []string{RoleAdmin, RoleManager, RoleDispatcher, RoleDriver, RoleCustomer}

// GuardResult represents the outcome of a capability check.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// IsKnownRole reports whether role is one of AllRoles.
func IsKnownRole(role string) bool {
	return slices.Contains(AllRoles, role)
}

// CanPerform evaluates whether an actor with role may run an operation
// restricted to the allowed roles.
// Rules:
// - Role must be known
// - Role must be one of allowed
func CanPerform(role string, allowed ...string) GuardResult {
	if !IsKnownRole(role) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("unknown role %q", role),
		}
	}

	if !slices.Contains(allowed, role) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("role %s is not permitted (requires one of: %s)", role, strings.Join(allowed, ", ")),
		}
	}

	return GuardResult{Allowed: true}
}
