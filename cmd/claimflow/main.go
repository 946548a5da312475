package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/analytics"
	"github.com/healthlane/claimflow/internal/batch"
	"github.com/healthlane/claimflow/internal/claim"
	"github.com/healthlane/claimflow/internal/clock"
	"github.com/healthlane/claimflow/internal/config"
	"github.com/healthlane/claimflow/internal/insurer"
	"github.com/healthlane/claimflow/internal/logger"
	"github.com/healthlane/claimflow/internal/migration"
	obsmetrics "github.com/healthlane/claimflow/internal/observability/metrics"
	"github.com/healthlane/claimflow/internal/providers/email"
	"github.com/healthlane/claimflow/internal/scheduler"
	"github.com/healthlane/claimflow/internal/server"
	"github.com/healthlane/claimflow/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		obsmetrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services
		insurer.Module,
		batch.Module,
		claim.Module,
		analytics.Module,
		email.Module,

		// Outer surfaces
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
