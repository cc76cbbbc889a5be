package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrNoSession = errors.New("shop_session_not_found")

// Session is the offline Admin API token stored for an installed shop.
type Session struct {
	Shop        string    `gorm:"primaryKey;column:shop"`
	AccessToken string    `gorm:"column:access_token;not null"`
	Scope       string    `gorm:"column:scope;not null;default:''"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Session) TableName() string { return "shop_sessions" }

type Repository interface {
	FindByShop(ctx context.Context, db *gorm.DB, shop string) (*Session, error)
	Save(ctx context.Context, db *gorm.DB, session *Session) error
}

// TokenSource resolves the Admin API token for a shop.
type TokenSource interface {
	AccessToken(ctx context.Context, shop string) (string, error)
}
