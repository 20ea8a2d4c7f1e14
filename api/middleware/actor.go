package middleware

import (
	"context"
	"net/http"

	"github.com/veloplane-b2b/orderdesk-backend/pkg/logger"
)

type contextKey string

const (
	ctxActorID    contextKey = "actor_id"
	ctxActorRole  contextKey = "actor_role"
	ctxRetailerID contextKey = "retailer_id"
)

const (
	actorIDHeader    = "X-Actor-Id"
	actorRoleHeader  = "X-Actor-Role"
	retailerIDHeader = "X-Retailer-Id"
)

// ActorContext lifts the identity headers set by the trusted gateway into the
// request context. The gateway terminates authentication; this service only
// consumes the result.
func ActorContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if actorID := r.Header.Get(actorIDHeader); actorID != "" {
				ctx = context.WithValue(ctx, ctxActorID, actorID)
				if logg != nil {
					ctx = logg.WithActor(ctx, actorID)
				}
			}
			if role := r.Header.Get(actorRoleHeader); role != "" {
				ctx = context.WithValue(ctx, ctxActorRole, role)
			}
			if retailerID := r.Header.Get(retailerIDHeader); retailerID != "" {
				ctx = context.WithValue(ctx, ctxRetailerID, retailerID)
				if logg != nil {
					ctx = logg.WithRetailerID(ctx, retailerID)
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ActorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

func ActorRoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorRole).(string); ok {
		return v
	}
	return ""
}

func RetailerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRetailerID).(string); ok {
		return v
	}
	return ""
}
