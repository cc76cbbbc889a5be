package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/prizewheel/internal/shopsession/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByShop(ctx context.Context, db *gorm.DB, shop string) (*domain.Session, error) {
	var session domain.Session
	err := db.WithContext(ctx).
		Where("shop = ?", shop).
		Take(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, session *domain.Session) error {
	if session == nil {
		return errors.New("missing_shop_session")
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token", "scope", "updated_at"}),
		}).
		Create(session).Error
}
