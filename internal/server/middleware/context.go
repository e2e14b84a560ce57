package middleware

import (
	"context"

	userdomain "servicos-ja/backend/internal/user/domain"
)

type contextKey struct{ name string }

var identityKey = contextKey{"identity"}

// WithIdentity returns a context carrying the authenticated user.
// Handlers read it via GetUser or GetUserID.
func WithIdentity(ctx context.Context, user *userdomain.Projection) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

// GetUser returns the authenticated user from context and true if set.
func GetUser(ctx context.Context) (*userdomain.Projection, bool) {
	u, ok := ctx.Value(identityKey).(*userdomain.Projection)
	return u, ok && u != nil
}

// GetUserID returns the authenticated user's id from context and true if set.
func GetUserID(ctx context.Context) (string, bool) {
	u, ok := GetUser(ctx)
	if !ok {
		return "", false
	}
	return u.ID, true
}
