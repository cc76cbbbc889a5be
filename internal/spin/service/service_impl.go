package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/smallbiznis/prizewheel/internal/allocation"
	"github.com/smallbiznis/prizewheel/internal/observability/metrics"
	playdomain "github.com/smallbiznis/prizewheel/internal/play/domain"
	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
	rewarddomain "github.com/smallbiznis/prizewheel/internal/reward/domain"
	"github.com/smallbiznis/prizewheel/internal/spin/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var identityPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,63}$`)

const lockReleaseTimeout = 2 * time.Second

type Params struct {
	fx.In

	Catalog prizedomain.Service
	Engine  *allocation.Engine
	Issuer  rewarddomain.Issuer
	Plays   playdomain.Service
	Locker  domain.Locker    `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
	Log     *zap.Logger
}

type Service struct {
	catalog prizedomain.Service
	engine  *allocation.Engine
	issuer  rewarddomain.Issuer
	plays   playdomain.Service
	locker  domain.Locker
	metrics *metrics.Metrics
	log     *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		catalog: p.Catalog,
		engine:  p.Engine,
		issuer:  p.Issuer,
		plays:   p.Plays,
		locker:  p.Locker,
		metrics: p.Metrics,
		log:     p.Log.Named("spin.service"),
	}
}

func (s *Service) Spin(ctx context.Context, req domain.Request) (domain.Result, error) {
	result, err := s.spin(ctx, req)
	s.metrics.RecordSpin(ctx, req.TenantID, outcomeLabel(result, err))
	return result, err
}

func (s *Service) spin(ctx context.Context, req domain.Request) (domain.Result, error) {
	if strings.TrimSpace(req.Honeypot) != "" {
		s.log.Info("honeypot tripped", zap.String("tenant_id", req.TenantID))
		return domain.Result{}, domain.ErrSuspicious
	}

	identity := playdomain.NormalizeIdentity(req.Identity)
	if identity == "" || !identityPattern.MatchString(identity) {
		return domain.Result{}, domain.ErrInvalidIdentity
	}

	if s.locker != nil {
		token, ok, err := s.locker.TryLockIdentity(ctx, req.TenantID, identity)
		if err != nil {
			// Redis trouble degrades to the unique constraint alone.
			s.log.Warn("spin lock unavailable", zap.String("tenant_id", req.TenantID), zap.Error(err))
		} else if !ok {
			return domain.Result{}, domain.ErrSpinInProgress
		} else {
			defer s.release(req.TenantID, identity, token)
		}
	}

	catalog, err := s.catalog.Get(ctx, req.TenantID)
	if err != nil {
		if errors.Is(err, prizedomain.ErrNotFound) {
			return domain.Result{Status: domain.StatusInvalid, Reason: domain.ErrCatalogUnavailable}, nil
		}
		return domain.Result{}, err
	}

	outcome, err := s.engine.Allocate(ctx, catalog, req.TenantID, identity)
	if err != nil {
		return domain.Result{}, err
	}
	switch outcome.Kind {
	case allocation.KindAlreadyPlayed:
		return domain.Result{
			Status:        domain.StatusAlreadyPlayed,
			ExistingCode:  outcome.ExistingCode,
			ExistingLabel: outcome.ExistingLabel,
		}, nil
	case allocation.KindInvalid:
		s.log.Warn("spin refused by catalog",
			zap.String("tenant_id", req.TenantID),
			zap.Error(outcome.Reason),
		)
		return domain.Result{Status: domain.StatusInvalid, Reason: outcome.Reason}, nil
	}

	if _, err := s.issuer.Issue(ctx, req.TenantID, identity, outcome.Segment, outcome.Code); err != nil {
		s.log.Error("reward issuance failed",
			zap.String("tenant_id", req.TenantID),
			zap.String("discount_type", string(outcome.Segment.DiscountType)),
			zap.Error(err),
		)
		if errors.Is(err, rewarddomain.ErrIssue) {
			return domain.Result{}, errors.Join(domain.ErrRewardUnavailable, err)
		}
		return domain.Result{}, err
	}

	recorded, err := s.plays.Record(ctx, playdomain.RecordRequest{
		TenantID:     req.TenantID,
		Identity:     identity,
		PrizeLabel:   outcome.Segment.Label,
		DiscountCode: outcome.Code,
		DeviceType:   req.DeviceType,
	})
	if err != nil {
		s.log.Error("discount issued but play not stored",
			zap.String("tenant_id", req.TenantID),
			zap.String("discount_code", outcome.Code),
			zap.Error(err),
		)
		return domain.Result{}, err
	}
	if !recorded.Inserted {
		s.log.Warn("discount issued but not recorded",
			zap.String("tenant_id", req.TenantID),
			zap.String("discount_code", outcome.Code),
			zap.String("kept_code", recorded.Record.DiscountCode),
		)
		return domain.Result{
			Status:        domain.StatusAlreadyPlayed,
			ExistingCode:  recorded.Record.DiscountCode,
			ExistingLabel: recorded.Record.PrizeLabel,
		}, nil
	}

	return domain.Result{
		Status: domain.StatusWon,
		Label:  outcome.Segment.Label,
		Code:   outcome.Code,
		Index:  outcome.Index,
	}, nil
}

func (s *Service) release(tenantID, identity, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
	defer cancel()
	if err := s.locker.ReleaseIdentity(ctx, tenantID, identity, token); err != nil {
		s.log.Warn("spin lock release failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

func outcomeLabel(result domain.Result, err error) string {
	switch {
	case errors.Is(err, domain.ErrSuspicious):
		return "suspicious"
	case errors.Is(err, domain.ErrInvalidIdentity):
		return "invalid_identity"
	case errors.Is(err, domain.ErrSpinInProgress):
		return "in_progress"
	case errors.Is(err, rewarddomain.ErrIssue):
		return "issue_failed"
	case err != nil:
		return "error"
	}
	return string(result.Status)
}
