package spin

import (
	"github.com/smallbiznis/prizewheel/internal/ratelimit"
	"github.com/smallbiznis/prizewheel/internal/spin/domain"
	"github.com/smallbiznis/prizewheel/internal/spin/service"
	"go.uber.org/fx"
)

var Module = fx.Module("spin.service",
	fx.Provide(func(l *ratelimit.SpinLimiter) domain.Locker { return l }),
	fx.Provide(service.New),
)
