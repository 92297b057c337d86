package auth

import "context"

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID   uint
	Username string
	Email    string
	IsAdmin  bool
	Claims   *Claims
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal set by the auth middleware.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
