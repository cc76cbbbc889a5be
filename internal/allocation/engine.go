package allocation

import (
	"context"
	"math/rand/v2"

	playdomain "github.com/smallbiznis/prizewheel/internal/play/domain"
	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

type Params struct {
	fx.In

	Plays playdomain.Service
	Codes CodeGenerator
	Log   *zap.Logger
}

type Engine struct {
	plays playdomain.Service
	codes CodeGenerator
	rand  RandomSource
	log   *zap.Logger
}

func New(p Params) *Engine {
	return &Engine{
		plays: p.Plays,
		codes: p.Codes,
		rand:  globalRand{},
		log:   p.Log.Named("allocation.engine"),
	}
}

// WithRandom returns a copy of the engine drawing from src.
func (e *Engine) WithRandom(src RandomSource) *Engine {
	clone := *e
	clone.rand = src
	return &clone
}

// Allocate picks the winning segment for identity. Nothing is persisted;
// the caller records the play once the reward exists.
func (e *Engine) Allocate(ctx context.Context, catalog prizedomain.Catalog, tenantID, identity string) (Outcome, error) {
	prior, err := e.plays.FindWinning(ctx, tenantID, identity)
	if err != nil {
		return Outcome{}, err
	}
	if prior != nil && prior.DiscountCode != "" {
		return AlreadyPlayed(prior.DiscountCode, prior.PrizeLabel), nil
	}

	enabled, total, err := prizedomain.CheckSpinnable(catalog)
	if err != nil {
		e.log.Debug("catalog cannot be spun",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		return Invalid(err), nil
	}

	winner := Draw(enabled, total, e.rand.Float64())
	return Won(winner, e.codes.NewCode()), nil
}

// Draw maps u in [0, 1) onto the cumulative chances. A segment wins when
// r < its cumulative bound, so a draw landing exactly on a boundary goes
// to the later segment. Float drift past the last bound falls back to the
// last segment with a positive chance.
func Draw(enabled []prizedomain.IndexedSegment, total, u float64) prizedomain.IndexedSegment {
	r := u * total
	cumulative := 0.0
	for _, seg := range enabled {
		cumulative += seg.Chance
		if r < cumulative {
			return seg
		}
	}
	for i := len(enabled) - 1; i >= 0; i-- {
		if enabled[i].Chance > 0 {
			return enabled[i]
		}
	}
	return enabled[len(enabled)-1]
}
