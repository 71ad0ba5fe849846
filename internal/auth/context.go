package auth

import (
	"context"
)

type ctxKey string

const (
	userKey ctxKey = "userClaims"
)

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// FromContext returns the identity attached by Authenticate. ok is false on
// routes that are not behind the middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(userKey).(Identity)
	return v, ok
}
