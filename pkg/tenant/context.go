package tenant

import (
	"context"
	"errors"
)

// contextKey is a private type for context keys to prevent collisions
type contextKey string

const (
	tenantIDKey        contextKey = "tenant_id"
	tenantSubdomainKey contextKey = "tenant_subdomain"
)

var (
	// ErrNoTenantInContext is returned when tenant context is missing.
	// Repositories treat this as a hard failure: a query without a tenant
	// must never run unfiltered.
	ErrNoTenantInContext = errors.New("no tenant in context")
)

// WithTenant adds tenant identity to the context.
// Called by the auth middleware after resolving the user's tenant link.
func WithTenant(ctx context.Context, id, subdomain string) context.Context {
	ctx = context.WithValue(ctx, tenantIDKey, id)
	ctx = context.WithValue(ctx, tenantSubdomainKey, subdomain)
	return ctx
}

// WithTenantID adds only the tenant ID to the context.
// Useful for background work (schedulers, webhook processing) that acts
// on behalf of a known tenant without a full request context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantID extracts the tenant ID from the context.
// Returns ErrNoTenantInContext if no tenant is set.
func TenantID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(tenantIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoTenantInContext
	}
	return id, nil
}

// Subdomain extracts the tenant subdomain from the context.
func Subdomain(ctx context.Context) (string, error) {
	sub, ok := ctx.Value(tenantSubdomainKey).(string)
	if !ok || sub == "" {
		return "", ErrNoTenantInContext
	}
	return sub, nil
}

// MustTenantID extracts the tenant ID from the context and panics if not found.
// Use only where a missing tenant is a programming error.
func MustTenantID(ctx context.Context) string {
	id, err := TenantID(ctx)
	if err != nil {
		panic("tenant ID not found in context")
	}
	return id
}
