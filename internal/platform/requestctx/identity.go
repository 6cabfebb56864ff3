// Package requestctx carries the authenticated caller through request contexts.
package requestctx

import "context"

// identityContextKey is the context key for authenticated user identity.
type identityContextKey struct{}

// Identity is the caller asserted by a verified bearer token.
type Identity struct {
	UserID   int64
	Username string
}

// WithIdentity stores the authenticated identity in context.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey{}, identity)
}

// IdentityFromContext returns the identity stored in context and whether one
// was present.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	value, ok := ctx.Value(identityContextKey{}).(Identity)
	if !ok || value.UserID <= 0 {
		return Identity{}, false
	}
	return value, true
}

// UserIDFromContext returns the authenticated user id, or zero when absent.
func UserIDFromContext(ctx context.Context) int64 {
	identity, _ := IdentityFromContext(ctx)
	return identity.UserID
}
