package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/prizewheel/internal/play/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByIdentity(ctx context.Context, db *gorm.DB, tenantID, identity string) (*domain.PlayRecord, error) {
	var record domain.PlayRecord
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND identity = ?", tenantID, identity).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) InsertOnce(ctx context.Context, db *gorm.DB, record *domain.PlayRecord) (bool, error) {
	if record == nil {
		return false, errors.New("missing_play_record")
	}
	result := db.WithContext(ctx).Exec(
		`INSERT INTO play_records (id, tenant_id, identity, prize_label, discount_code, device_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, identity) DO NOTHING`,
		int64(record.ID),
		record.TenantID,
		record.Identity,
		record.PrizeLabel,
		record.DiscountCode,
		record.DeviceType,
		record.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID string, limit int) ([]domain.PlayRecord, error) {
	if limit <= 0 || limit > domain.MaxListLimit {
		limit = domain.MaxListLimit
	}
	var records []domain.PlayRecord
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID string, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, int64(id)).
		Delete(&domain.PlayRecord{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
