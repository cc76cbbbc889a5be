package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/prizewheel/internal/allocation"
	"github.com/smallbiznis/prizewheel/internal/clock"
	"github.com/smallbiznis/prizewheel/internal/config"
	"github.com/smallbiznis/prizewheel/internal/migration"
	"github.com/smallbiznis/prizewheel/internal/observability"
	"github.com/smallbiznis/prizewheel/internal/play"
	"github.com/smallbiznis/prizewheel/internal/prize"
	"github.com/smallbiznis/prizewheel/internal/ratelimit"
	"github.com/smallbiznis/prizewheel/internal/reward"
	"github.com/smallbiznis/prizewheel/internal/server"
	"github.com/smallbiznis/prizewheel/internal/shopsession"
	"github.com/smallbiznis/prizewheel/internal/spin"
	"github.com/smallbiznis/prizewheel/internal/tenant"
	"github.com/smallbiznis/prizewheel/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,

		// Tenancy
		tenant.Module,
		shopsession.Module,

		// Wheel
		prize.Module,
		play.Module,
		allocation.Module,
		reward.Module,
		spin.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
