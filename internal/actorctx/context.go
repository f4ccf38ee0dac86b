package actorctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type contextKey string

const actorIDKey contextKey = "actor_id"

// WithActor attaches the already-resolved actor identity to the context.
// Resolving the identity (cookies, tokens) happens upstream and is not this
// service's concern.
func WithActor(ctx context.Context, actorID snowflake.ID) context.Context {
	if actorID == 0 {
		return ctx
	}
	return context.WithValue(ctx, actorIDKey, actorID)
}

// ActorFromContext returns the acting identity, zero when absent.
func ActorFromContext(ctx context.Context) snowflake.ID {
	value, _ := ctx.Value(actorIDKey).(snowflake.ID)
	return value
}
