package db

import (
	"context"
	"fmt"

	"github.com/smallbiznis/prizewheel/internal/config"
	"github.com/smallbiznis/prizewheel/internal/observability"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(NewControlPlane),
	fx.Provide(provideTenantOpener),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	ObsConfig observability.Config
	Log       *zap.Logger
}

// NewControlPlane opens the shared database holding tenant records and
// shop sessions. Pool statistics are exported to Prometheus.
func NewControlPlane(p Params) (*gorm.DB, error) {
	cfg := ConfigFrom(p.Config)
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := Open(dialector, OpenOptions{
		Name:     cfg.Name,
		Pool:     cfg.Pool(),
		LogLevel: p.ObsConfig.GormLogLevel(),
	})
	if err != nil {
		return nil, fmt.Errorf("open control plane database: %w", err)
	}

	if err := conn.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          cfg.Name,
		RefreshInterval: 15,
		StartServer:     false,
	})); err != nil {
		return nil, fmt.Errorf("register prometheus plugin: %w", err)
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	p.Log.Info("control plane database ready",
		zap.String("type", cfg.Type),
		zap.String("host", cfg.Host),
		zap.String("name", cfg.Name),
	)
	return conn, nil
}

func provideTenantOpener(cfg config.Config, obsCfg observability.Config) *TenantOpener {
	return NewTenantOpener(PoolConfig{
		MaxIdleConn:     cfg.Tenant.MaxIdleConn,
		MaxOpenConn:     cfg.Tenant.MaxOpenConn,
		ConnMaxLifetime: cfg.Tenant.ConnMaxLifetime,
	}, obsCfg.GormLogLevel())
}
