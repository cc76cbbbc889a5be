package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed sql/controlplane/*.sql sql/tenant/*.sql
var embeddedMigrations embed.FS

// Set names one of the embedded migration directories.
type Set string

const (
	ControlPlane Set = "sql/controlplane"
	Tenant       Set = "sql/tenant"
)

// RunMigrations applies every pending migration of set against db.
func RunMigrations(db *sql.DB, set Set) error {
	return runMigrations(context.Background(), db, set)
}

func runMigrations(ctx context.Context, db *sql.DB, set Set) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, string(set))
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			migrator.GracefulStop <- true
		case <-done:
		}
	}()

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("apply migrations: %w", ctx.Err())
	}
	// Do not call migrator.Close here because it would close the caller's *sql.DB.

	return nil
}

// TenantRunner applies the tenant schema to a freshly provisioned database.
type TenantRunner struct {
	log *zap.Logger
}

func NewTenantRunner(log *zap.Logger) *TenantRunner {
	return &TenantRunner{log: log.Named("migration.tenant")}
}

// Migrate opens a short-lived connection to databaseURL and brings the
// tenant schema up to date.
func (r *TenantRunner) Migrate(ctx context.Context, databaseURL string) error {
	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open tenant database: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping tenant database: %w", err)
	}
	if err := runMigrations(ctx, sqlDB, Tenant); err != nil {
		return err
	}
	r.log.Info("tenant migrations applied")
	return nil
}
