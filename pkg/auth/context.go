package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

var actorKey contextKey

// WithActor returns a context carrying the resolved caller identity.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the caller identity, or nil when the request
// was not authenticated.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorKey).(*Actor)
	return actor
}

// ActorID is a convenience accessor that tolerates missing identity.
func ActorID(ctx context.Context) uuid.UUID {
	if actor := ActorFromContext(ctx); actor != nil {
		return actor.ID
	}
	return uuid.Nil
}
