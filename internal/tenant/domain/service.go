package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindByTenantID(ctx context.Context, db *gorm.DB, tenantID string) (*TenantDatabase, error)
	// Upsert stores the record keyed by tenant id. An existing non-empty
	// DatabaseURL is kept; the stored row is returned.
	Upsert(ctx context.Context, db *gorm.DB, record *TenantDatabase) (*TenantDatabase, error)
}

// Provisioner creates a database by name. A database that already exists
// counts as success.
type Provisioner interface {
	Name() string
	CreateDatabase(ctx context.Context, name string) error
}

// Migrator brings a tenant database schema up to date.
type Migrator interface {
	Migrate(ctx context.Context, databaseURL string) error
}

// Gateway hands out the pooled connection for a tenant, provisioning the
// database on first use.
type Gateway interface {
	GetConnection(ctx context.Context, tenantID string) (*gorm.DB, error)
}
