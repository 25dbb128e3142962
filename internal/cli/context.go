// Package cli contains the cobra commands of the rebarflow binary.
package cli

import (
	"context"

	"github.com/example/rebarflow/internal/ctxutil"
	"github.com/example/rebarflow/internal/wire"
)

// serviceContext builds the context every service call runs under:
// tenant and actor from configuration.
func serviceContext() context.Context {
	cfg := wire.Config()
	ctx := ctxutil.WithTenantID(context.Background(), cfg.Tenant.ID)
	if cfg.Tenant.Actor != "" {
		ctx = ctxutil.WithActorID(ctx, cfg.Tenant.Actor)
	}
	return ctx
}
