package prize

import (
	"github.com/smallbiznis/prizewheel/internal/prize/repository"
	"github.com/smallbiznis/prizewheel/internal/prize/service"
	"go.uber.org/fx"
)

var Module = fx.Module("prize.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
