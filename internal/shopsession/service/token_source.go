package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/prizewheel/internal/shopsession/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Repo domain.Repository
}

type TokenSource struct {
	db   *gorm.DB
	repo domain.Repository
}

func New(p Params) domain.TokenSource {
	return &TokenSource{db: p.DB, repo: p.Repo}
}

func (s *TokenSource) AccessToken(ctx context.Context, shop string) (string, error) {
	session, err := s.repo.FindByShop(ctx, s.db, strings.TrimSpace(shop))
	if err != nil {
		return "", err
	}
	if session == nil || strings.TrimSpace(session.AccessToken) == "" {
		return "", domain.ErrNoSession
	}
	return session.AccessToken, nil
}
