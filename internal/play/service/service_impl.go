package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/prizewheel/internal/clock"
	"github.com/smallbiznis/prizewheel/internal/play/domain"
	tenantdomain "github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Gateway tenantdomain.Gateway
	Repo    domain.Repository
	GenID   *snowflake.Node
	Clock   clock.Clock
	Log     *zap.Logger
}

type Service struct {
	gateway tenantdomain.Gateway
	repo    domain.Repository
	genID   *snowflake.Node
	clock   clock.Clock
	log     *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		gateway: p.Gateway,
		repo:    p.Repo,
		genID:   p.GenID,
		clock:   p.Clock,
		log:     p.Log.Named("play.service"),
	}
}

func (s *Service) FindWinning(ctx context.Context, tenantID, identity string) (*domain.PlayRecord, error) {
	conn, err := s.gateway.GetConnection(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByIdentity(ctx, conn, tenantID, domain.NormalizeIdentity(identity))
}

func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (domain.RecordResult, error) {
	identity := domain.NormalizeIdentity(req.Identity)
	if identity == "" {
		return domain.RecordResult{}, errors.New("identity_required")
	}

	conn, err := s.gateway.GetConnection(ctx, req.TenantID)
	if err != nil {
		return domain.RecordResult{}, err
	}

	record := domain.PlayRecord{
		ID:           s.genID.Generate(),
		TenantID:     req.TenantID,
		Identity:     identity,
		PrizeLabel:   req.PrizeLabel,
		DiscountCode: req.DiscountCode,
		DeviceType:   strings.TrimSpace(req.DeviceType),
		CreatedAt:    s.clock.Now(),
	}
	inserted, err := s.repo.InsertOnce(ctx, conn, &record)
	if err != nil {
		return domain.RecordResult{}, err
	}
	if inserted {
		return domain.RecordResult{Record: record, Inserted: true}, nil
	}

	existing, err := s.repo.FindByIdentity(ctx, conn, req.TenantID, identity)
	if err != nil {
		return domain.RecordResult{}, err
	}
	if existing == nil {
		// Deleted between the conflict and the read.
		return domain.RecordResult{}, errors.New("play_record_conflict_unresolved")
	}
	return domain.RecordResult{Record: *existing, Inserted: false}, nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]domain.PlayRecord, error) {
	conn, err := s.gateway.GetConnection(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, conn, tenantID, domain.MaxListLimit)
}

func (s *Service) Delete(ctx context.Context, tenantID string, id snowflake.ID) error {
	conn, err := s.gateway.GetConnection(ctx, tenantID)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, conn, tenantID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	s.log.Info("play record deleted",
		zap.String("tenant_id", tenantID),
		zap.String("play_id", id.String()),
	)
	return nil
}
