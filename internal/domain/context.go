// Package domain provides the core types of the cart-to-order pipeline, its
// coded errors and the request-scoped context helpers.
//
// Context helpers centralize access to the authenticated actor so handlers
// and services read identity the same way.
package domain

import (
	"context"

	"github.com/google/uuid"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	actorContextKey contextKey = iota
	requestIDContextKey
)

// --- Actor Context Helpers ---

// NewContextWithActor returns a new context with the actor attached.
func NewContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext retrieves the actor from context.
// The second result is false if no actor is present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(Actor)
	return actor, ok
}

// UserIDFromContext retrieves the actor's ID from context.
// Returns uuid.Nil if no actor is present.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.ID
	}
	return uuid.Nil
}

// MustActor retrieves the actor from context, panicking if not present.
// Use it behind middleware that rejects anonymous requests.
func MustActor(ctx context.Context) Actor {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		panic("actor required in context but not found")
	}
	return actor
}

// --- Request ID Context Helpers ---

// NewContextWithRequestID returns a new context with the request ID attached.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDContextKey).(string)
	return requestID
}
