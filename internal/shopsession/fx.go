package shopsession

import (
	"github.com/smallbiznis/prizewheel/internal/shopsession/repository"
	"github.com/smallbiznis/prizewheel/internal/shopsession/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shopsession.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
