package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByTenantID(ctx context.Context, db *gorm.DB, tenantID string) (*domain.TenantDatabase, error) {
	var record domain.TenantDatabase
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, record *domain.TenantDatabase) (*domain.TenantDatabase, error) {
	if record == nil {
		return nil, errors.New("missing_tenant_record")
	}
	now := record.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	// Racing writers carry the same deterministic URL, so whichever row
	// lands first is the answer. A stored URL is never replaced.
	err := db.WithContext(ctx).Exec(
		upsertStatement(db.Dialector.Name()),
		record.TenantID,
		record.DatabaseName,
		record.DatabaseURL,
		createdAt,
		now,
	).Error
	if err != nil {
		return nil, err
	}

	stored, err := r.FindByTenantID(ctx, db, record.TenantID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.New("tenant_record_missing_after_upsert")
	}
	return stored, nil
}

const insertTenantDatabase = `INSERT INTO tenant_databases (tenant_id, database_name, database_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)`

// upsertStatement returns the insert-or-fill statement for a dialect.
// MySQL applies assignments left to right, so database_url goes last.
func upsertStatement(dialect string) string {
	if dialect == "mysql" {
		return insertTenantDatabase + `
ON DUPLICATE KEY UPDATE
database_name = IF(database_url = '', VALUES(database_name), database_name),
updated_at = IF(database_url = '', VALUES(updated_at), updated_at),
database_url = IF(database_url = '', VALUES(database_url), database_url)`
	}
	return insertTenantDatabase + `
ON CONFLICT (tenant_id) DO UPDATE
SET database_name = excluded.database_name,
    database_url = excluded.database_url,
    updated_at = excluded.updated_at
WHERE tenant_databases.database_url = ''`
}
