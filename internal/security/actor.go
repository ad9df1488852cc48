package security

import (
	"context"

	"gearshare-backend/internal/domain"
)

type actorKey struct{}

// WithActor records the authenticated admin on the request context.
func WithActor(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, actorKey{}, email)
}

// ActorFromContext returns the authenticated admin, or domain.SystemActor
// for background work.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return domain.SystemActor
}
