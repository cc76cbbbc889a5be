package provisioner

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/smallbiznis/prizewheel/internal/config"
	"github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"github.com/smallbiznis/prizewheel/pkg/db"
	"go.uber.org/zap"
)

// Postgres issues CREATE DATABASE against the server behind DATABASE_URL.
// Used for self-hosted clusters and local development.
type Postgres struct {
	adminURL string
	log      *zap.Logger
}

func NewPostgres(cfg config.TenantConfig, log *zap.Logger) *Postgres {
	return &Postgres{
		adminURL: strings.TrimSpace(cfg.DatabaseURL),
		log:      log.Named("tenant.provisioner.postgres"),
	}
}

func (p *Postgres) Name() string { return config.ProvisionerPostgres }

func (p *Postgres) CreateDatabase(ctx context.Context, name string) error {
	if p.adminURL == "" {
		return fmt.Errorf("%w: DATABASE_URL is required", domain.ErrConfig)
	}

	conn, err := pgx.Connect(ctx, p.adminURL)
	if err != nil {
		return fmt.Errorf("%w: connect: %v", domain.ErrProvisioning, err)
	}
	defer conn.Close(context.Background())

	// CREATE DATABASE cannot take bind parameters.
	stmt := "CREATE DATABASE " + pgx.Identifier{name}.Sanitize()
	if _, err := conn.Exec(ctx, stmt); err != nil {
		if db.IsDuplicateDatabaseErr(err) {
			p.log.Info("tenant database already exists", zap.String("database", name))
			return nil
		}
		return fmt.Errorf("%w: create database: %v", domain.ErrProvisioning, err)
	}

	p.log.Info("tenant database created", zap.String("database", name))
	return nil
}
