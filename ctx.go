package accounts

import "context"

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AccountClaims in the given context
func WithClaimsContext(ctx context.Context, claims *AccountClaims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

// ClaimsFromContext extracts the AccountClaims from the context
func ClaimsFromContext(ctx context.Context) (*AccountClaims, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(claimsCtxKey).(*AccountClaims)
	return raw, ok && raw != nil
}

// ActorFromContext returns the username of the caller, or "" when the
// context carries no claims.
func ActorFromContext(ctx context.Context) string {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return ""
	}
	return claims.Username()
}
