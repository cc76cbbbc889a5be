package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/prizewheel/internal/clock"
	"github.com/smallbiznis/prizewheel/internal/prize/domain"
	tenantdomain "github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Gateway tenantdomain.Gateway
	Repo    domain.Repository
	Clock   clock.Clock
	Log     *zap.Logger
}

type Service struct {
	gateway tenantdomain.Gateway
	repo    domain.Repository
	clock   clock.Clock
	log     *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		gateway: p.Gateway,
		repo:    p.Repo,
		clock:   p.Clock,
		log:     p.Log.Named("prize.service"),
	}
}

func (s *Service) Get(ctx context.Context, tenantID string) (domain.Catalog, error) {
	conn, err := s.gateway.GetConnection(ctx, tenantID)
	if err != nil {
		return domain.Catalog{}, err
	}
	settings, err := s.repo.FindByTenantID(ctx, conn, tenantID)
	if err != nil {
		return domain.Catalog{}, err
	}
	if settings == nil {
		return domain.Catalog{}, domain.ErrNotFound
	}
	return settings.Catalog(), nil
}

func (s *Service) Save(ctx context.Context, tenantID string, req domain.SaveCatalogRequest) (domain.Catalog, error) {
	catalog := domain.Catalog{
		TenantID: tenantID,
		Segments: normalizeSegments(req.Segments),
	}
	if errs := domain.Validate(catalog); len(errs) > 0 {
		return domain.Catalog{}, &domain.ValidationError{Errors: errs}
	}

	conn, err := s.gateway.GetConnection(ctx, tenantID)
	if err != nil {
		return domain.Catalog{}, err
	}

	now := s.clock.Now()
	settings := &domain.WheelSettings{
		TenantID:  tenantID,
		Segments:  datatypes.JSONSlice[domain.Segment](catalog.Segments),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, conn, settings); err != nil {
		return domain.Catalog{}, err
	}

	s.log.Info("wheel catalog saved",
		zap.String("tenant_id", tenantID),
		zap.Int("segments", len(catalog.Segments)),
		zap.Int("enabled", len(catalog.EnabledSegments())),
	)
	catalog.UpdatedAt = now
	return catalog, nil
}

func normalizeSegments(in []domain.Segment) []domain.Segment {
	out := make([]domain.Segment, len(in))
	for i, seg := range in {
		seg.Label = strings.TrimSpace(seg.Label)
		if parsed, ok := domain.ParseDiscountType(string(seg.DiscountType)); ok {
			seg.DiscountType = parsed
		}
		if seg.DiscountType == domain.DiscountFreeShipping {
			seg.DiscountValue = 0
		}
		out[i] = seg
	}
	return out
}
