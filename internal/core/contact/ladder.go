// Package contact contains the pure business logic for the escalation contact ladder.
// This is part of the Functional Core - no I/O, only pure functions.
package contact

// Contact methods a ladder rung can be paged through.
const (
	TypeEmail = "email"
	TypePhone = "phone"
	TypePush  = "push"
)

// Rung is the minimal view of a contact needed for ladder traversal.
type Rung struct {
	ContactID string
	Position  int
	IsActive  bool
}

// First returns the index of the lowest-position active rung.
// Returns -1 when the ladder has no active rung.
func First(rungs []Rung) int {
	return NextAfter(rungs, minPosition)
}

// NextAfter returns the index of the lowest-position active rung whose
// position is strictly greater than position. Input order does not matter.
// Returns -1 when the ladder is exhausted.
func NextAfter(rungs []Rung, position int) int {
	best := -1
	for i, r := range rungs {
		if !r.IsActive || r.Position <= position {
			continue
		}
		if best == -1 || r.Position < rungs[best].Position {
			best = i
		}
	}
	return best
}

// IsValidType reports whether t is a supported contact method.
func IsValidType(t string) bool {
	switch t {
	case TypeEmail, TypePhone, TypePush:
		return true
	}
	return false
}

// minPosition sits below any valid rung position.
const minPosition = -1 << 31
