package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const MaxListLimit = 500

var ErrNotFound = errors.New("play_not_found")

// PlayRecord is the one winning play a shopper may hold per tenant. The
// unique index on (tenant_id, identity) is what enforces "one play".
type PlayRecord struct {
	ID           snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	TenantID     string       `gorm:"column:tenant_id;not null;uniqueIndex:uidx_play_records_identity,priority:1" json:"tenant_id"`
	Identity     string       `gorm:"column:identity;not null;uniqueIndex:uidx_play_records_identity,priority:2" json:"identity"`
	PrizeLabel   string       `gorm:"column:prize_label;not null" json:"prize_label"`
	DiscountCode string       `gorm:"column:discount_code;not null" json:"discount_code"`
	DeviceType   string       `gorm:"column:device_type;not null;default:''" json:"device_type"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
}

func (PlayRecord) TableName() string { return "play_records" }

// NormalizeIdentity folds e-mail identities so case variants count as the
// same shopper.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

type Repository interface {
	FindByIdentity(ctx context.Context, db *gorm.DB, tenantID, identity string) (*PlayRecord, error)
	// InsertOnce reports false when a record for the identity already exists.
	InsertOnce(ctx context.Context, db *gorm.DB, record *PlayRecord) (bool, error)
	List(ctx context.Context, db *gorm.DB, tenantID string, limit int) ([]PlayRecord, error)
	Delete(ctx context.Context, db *gorm.DB, tenantID string, id snowflake.ID) (bool, error)
}

type RecordRequest struct {
	TenantID     string
	Identity     string
	PrizeLabel   string
	DiscountCode string
	DeviceType   string
}

// RecordResult holds the stored play. Inserted is false when another
// request won the race and Record is that earlier play.
type RecordResult struct {
	Record   PlayRecord
	Inserted bool
}

type Service interface {
	FindWinning(ctx context.Context, tenantID, identity string) (*PlayRecord, error)
	Record(ctx context.Context, req RecordRequest) (RecordResult, error)
	List(ctx context.Context, tenantID string) ([]PlayRecord, error)
	Delete(ctx context.Context, tenantID string, id snowflake.ID) error
}
