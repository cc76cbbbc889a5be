package play

import (
	"github.com/smallbiznis/prizewheel/internal/play/repository"
	"github.com/smallbiznis/prizewheel/internal/play/service"
	"go.uber.org/fx"
)

var Module = fx.Module("play.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
