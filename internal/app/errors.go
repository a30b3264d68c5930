package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/logitrack/internal/core/access"
	"github.com/example/logitrack/internal/ports/primary"
	"github.com/example/logitrack/internal/ports/secondary"
)

// guardError converts a failed core guard into a classified primary error.
// Core packages share the kind vocabulary: not_found, forbidden, validation, conflict.
func guardError(kind, reason string) error {
	switch kind {
	case "not_found":
		return primary.NewError(primary.ErrNotFound, "%s", reason)
	case "forbidden":
		return primary.NewError(primary.ErrForbidden, "%s", reason)
	case "conflict":
		return primary.NewError(primary.ErrConflict, "%s", reason)
	default:
		return primary.NewError(primary.ErrValidation, "%s", reason)
	}
}

// authorize runs the capability check shared by every operation.
// An unknown role is a malformed request; a known but insufficient role is forbidden.
func authorize(role string, allowed ...string) error {
	if !access.IsKnownRole(role) {
		return primary.NewError(primary.ErrValidation, "unknown role %q", role)
	}
	if result := access.CanPerform(role, allowed...); !result.Allowed {
		return primary.NewError(primary.ErrForbidden, "%s", result.Reason)
	}
	return nil
}

// validateRequest checks a request's struct tags.
func validateRequest(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return primary.NewError(primary.ErrValidation, "invalid request: %v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return primary.NewError(primary.ErrValidation, "%s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// exists folds a repository not-found into a boolean.
func exists(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, secondary.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func isDuplicate(err error) bool {
	return errors.Is(err, secondary.ErrDuplicate)
}
