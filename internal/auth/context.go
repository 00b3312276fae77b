package auth

import (
	"context"

	"userhub/internal/session"
)

type ctxKey string

const claimKey ctxKey = "identityClaim"

func WithClaim(ctx context.Context, c session.Claim) context.Context {
	return context.WithValue(ctx, claimKey, c)
}

// ClaimFromContext returns the verified claim placed by Authenticate.
// The zero claim (UserID 0) means the request was not authenticated.
func ClaimFromContext(ctx context.Context) session.Claim {
	if v, ok := ctx.Value(claimKey).(session.Claim); ok {
		return v
	}
	return session.Claim{}
}

// ActorID reports the authenticated subject, or 0 when there is none.
func ActorID(ctx context.Context) int {
	return ClaimFromContext(ctx).UserID
}
