package tenant

import (
	"context"

	"github.com/smallbiznis/prizewheel/internal/migration"
	"github.com/smallbiznis/prizewheel/internal/tenant/connpool"
	"github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"github.com/smallbiznis/prizewheel/internal/tenant/provisioner"
	"github.com/smallbiznis/prizewheel/internal/tenant/repository"
	"github.com/smallbiznis/prizewheel/internal/tenant/service"
	"github.com/smallbiznis/prizewheel/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("tenant.gateway",
	fx.Provide(repository.Provide),
	fx.Provide(provisioner.New),
	fx.Provide(func(r *migration.TenantRunner) domain.Migrator { return r }),
	fx.Provide(newCache),
	fx.Provide(service.New),
	fx.Provide(func(g *service.Gateway) domain.Gateway { return g }),
)

func newCache(lc fx.Lifecycle, opener *db.TenantOpener, log *zap.Logger) *connpool.Cache {
	cache := connpool.New(opener.Open, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return cache.Close()
		},
	})
	return cache
}
