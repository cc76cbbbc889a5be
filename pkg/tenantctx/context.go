package tenantctx

import (
	"context"
	"strings"
)

// TenantContextKey is the request context key for the active shop.
type TenantContextKey struct{}

// WithTenantID stores the tenant (shop) identifier in the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantContextKey{}, strings.TrimSpace(tenantID))
}

// TenantID returns the tenant identifier from context, if set.
func TenantID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(TenantContextKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
