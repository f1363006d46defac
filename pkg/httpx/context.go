package httpx

import "context"

type ctxKey string

// CtxKeyPrincipal holds the authenticated principal name for request scoped
// helpers such as rate limiting. It is empty for anonymous requests.
const CtxKeyPrincipal ctxKey = "principal"

// WithPrincipal records the authenticated principal name on ctx.
func WithPrincipal(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, CtxKeyPrincipal, name)
}

// PrincipalFromContext returns the principal recorded by WithPrincipal.
func PrincipalFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyPrincipal).(string); ok {
		return v
	}
	return ""
}
