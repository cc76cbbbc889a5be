package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smallbiznis/prizewheel/internal/config"
	obsmetrics "github.com/smallbiznis/prizewheel/internal/observability/metrics"
	"github.com/smallbiznis/prizewheel/internal/tenant/connpool"
	"github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"github.com/smallbiznis/prizewheel/internal/tenant/provisioner"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Config      config.Config
	Repo        domain.Repository
	Provisioner domain.Provisioner
	Migrator    domain.Migrator `optional:"true"`
	Cache       *connpool.Cache
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

// Gateway resolves a tenant to its pooled database, creating the database
// on first use.
//
// Two processes may provision the same tenant at once. That is safe: the
// database name is derived from the tenant id, "already exists" counts as
// success, and the registry upsert never replaces a stored URL. Within one
// process the first-time path is collapsed per tenant.
type Gateway struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         config.TenantConfig
	repo        domain.Repository
	provisioner domain.Provisioner
	migrator    domain.Migrator
	cache       *connpool.Cache
	metrics     *obsmetrics.Metrics
	group       singleflight.Group

	// migrated holds tenants whose schema was brought up to date by this
	// process.
	migrated sync.Map
}

func New(p Params) *Gateway {
	return &Gateway{
		db:          p.DB,
		log:         p.Log.Named("tenant.gateway"),
		cfg:         p.Config.Tenant,
		repo:        p.Repo,
		provisioner: p.Provisioner,
		migrator:    p.Migrator,
		cache:       p.Cache,
		metrics:     p.Metrics,
	}
}

var _ domain.Gateway = (*Gateway)(nil)

func (g *Gateway) GetConnection(ctx context.Context, tenantID string) (*gorm.DB, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, domain.ErrInvalidTenant
	}

	dsn, err := g.ensureDatabase(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := g.ensureSchema(ctx, tenantID, dsn); err != nil {
		return nil, err
	}

	conn, err := g.cache.Get(ctx, tenantID, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open tenant pool: %v", domain.ErrProvisioning, err)
	}
	return conn, nil
}

func (g *Gateway) ensureDatabase(ctx context.Context, tenantID string) (string, error) {
	record, err := g.repo.FindByTenantID(ctx, g.db, tenantID)
	if err != nil {
		return "", fmt.Errorf("lookup tenant database: %w", err)
	}
	if record.Ready() {
		return record.DatabaseURL, nil
	}

	v, err := g.shared(ctx, "provision:"+tenantID, func(ctx context.Context) (any, error) {
		return g.provision(ctx, tenantID)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ensureSchema migrates a tenant database the first time this process
// serves it, so schema changes reach tenants provisioned earlier or while
// auto-migration was off.
func (g *Gateway) ensureSchema(ctx context.Context, tenantID, dsn string) error {
	if !g.cfg.AutoMigrate || g.migrator == nil {
		return nil
	}
	if _, ok := g.migrated.Load(tenantID); ok {
		return nil
	}
	_, err := g.shared(ctx, "migrate:"+tenantID, func(ctx context.Context) (any, error) {
		if _, ok := g.migrated.Load(tenantID); ok {
			return nil, nil
		}
		if err := g.migrator.Migrate(ctx, dsn); err != nil {
			g.log.Error("tenant migration failed", zap.String("tenant_id", tenantID), zap.Error(err))
			return nil, fmt.Errorf("%w: migrate: %v", domain.ErrProvisioning, err)
		}
		g.migrated.Store(tenantID, struct{}{})
		return nil, nil
	})
	return err
}

// shared runs fn once per key across concurrent callers. The flight is
// detached from any single caller's cancellation; a caller whose context
// ends stops waiting while the others still get the result.
func (g *Gateway) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(key, func() (any, error) {
		return fn(flightCtx)
	})
	select {
	case res := <-ch:
		if res.Shared {
			g.log.Debug("joined in-flight tenant setup", zap.String("key", key))
		}
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *Gateway) provision(ctx context.Context, tenantID string) (string, error) {
	start := time.Now()
	name := provisioner.DatabaseName(g.cfg.DBPrefix, tenantID)
	dsn, err := provisioner.DatabaseURL(g.cfg.DatabaseURL, name)
	if err != nil {
		return "", err
	}

	log := g.log.With(
		zap.String("tenant_id", tenantID),
		zap.String("database", name),
		zap.String("provisioner", g.provisioner.Name()),
	)

	if g.cfg.ProvisionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.ProvisionTimeout)
		defer cancel()
	}

	if err := g.provisioner.CreateDatabase(ctx, name); err != nil {
		g.metrics.RecordProvisioning(ctx, g.provisioner.Name(), "failed", time.Since(start))
		log.Error("tenant database provisioning failed", zap.Error(err))
		return "", err
	}

	if g.cfg.AutoMigrate && g.migrator != nil {
		if err := g.migrator.Migrate(ctx, dsn); err != nil {
			g.metrics.RecordProvisioning(ctx, g.provisioner.Name(), "migrate_failed", time.Since(start))
			log.Error("tenant migration failed", zap.Error(err))
			return "", fmt.Errorf("%w: migrate: %v", domain.ErrProvisioning, err)
		}
		g.migrated.Store(tenantID, struct{}{})
	}

	stored, err := g.repo.Upsert(ctx, g.db, &domain.TenantDatabase{
		TenantID:     tenantID,
		DatabaseName: name,
		DatabaseURL:  dsn,
	})
	if err != nil {
		return "", fmt.Errorf("store tenant database: %w", err)
	}

	g.metrics.RecordProvisioning(ctx, g.provisioner.Name(), "ready", time.Since(start))
	log.Info("tenant database ready", zap.Duration("elapsed", time.Since(start)))
	return stored.DatabaseURL, nil
}
