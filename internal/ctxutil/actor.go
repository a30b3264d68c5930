// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for the authenticated actor.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

type actor struct {
	userID string
	role   string
}

// WithActor returns a context with the authenticated user ID and role embedded.
func WithActor(ctx context.Context, userID, role string) context.Context {
	return context.WithValue(ctx, ActorKey{}, actor{userID: userID, role: role})
}

// ActorFromContext returns the user ID and role from context, or empty strings if not set.
func ActorFromContext(ctx context.Context) (userID, role string) {
	if v, ok := ctx.Value(ActorKey{}).(actor); ok {
		return v.userID, v.role
	}
	return "", ""
}
