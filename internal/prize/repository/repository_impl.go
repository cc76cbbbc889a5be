package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/prizewheel/internal/prize/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByTenantID(ctx context.Context, db *gorm.DB, tenantID string) (*domain.WheelSettings, error) {
	var settings domain.WheelSettings
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Take(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, settings *domain.WheelSettings) error {
	if settings == nil {
		return errors.New("missing_wheel_settings")
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"segments", "updated_at"}),
		}).
		Create(settings).Error
}
