// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for actor ID.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// TenantKey is the context key for tenant ID.
type TenantKey struct{}

// WithActorID returns a context with the actor ID embedded.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorKey{}, actorID)
}

// ActorFromContext returns the actor ID from context, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	if v := ctx.Value(ActorKey{}); v != nil {
		return v.(string)
	}
	return ""
}

// WithTenantID returns a context with the tenant ID embedded.
// Tenant scope travels through context so the normalizer and scheduler
// never read it from package state.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantKey{}, tenantID)
}

// TenantFromContext returns the tenant ID from context, or empty string if not set.
func TenantFromContext(ctx context.Context) string {
	if v := ctx.Value(TenantKey{}); v != nil {
		return v.(string)
	}
	return ""
}
