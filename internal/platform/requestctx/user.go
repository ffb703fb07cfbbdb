// Package requestctx carries per-request identity through context.
package requestctx

import "context"

// principalContextKey is the context key for the authenticated operator.
type principalContextKey struct{}

// Principal identifies the operator behind an admin request.
type Principal struct {
	UserID string
	Admin  bool
}

// WithPrincipal stores the authenticated operator in context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the operator stored in context, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	return principal, ok
}

// UserIDFromContext returns the operator user ID stored in context.
func UserIDFromContext(ctx context.Context) string {
	principal, _ := PrincipalFromContext(ctx)
	return principal.UserID
}
