package utils

import (
	"context"

	"github.com/securefms/securefms/models"
)

type ctxKey int

// principalCtxKey stores the authenticated principal placed in the request
// context by the auth middleware.
const principalCtxKey ctxKey = iota

// WithPrincipal returns a child context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, principalCtxKey, user)
}

// PrincipalFromContext extracts the authenticated principal stored by the
// auth middleware. The second return value is false when no principal is
// attached (unauthenticated request paths).
func PrincipalFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(principalCtxKey).(models.User)
	return user, ok
}
