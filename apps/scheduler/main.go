package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/batch"
	"github.com/healthlane/claimflow/internal/clock"
	"github.com/healthlane/claimflow/internal/config"
	"github.com/healthlane/claimflow/internal/insurer"
	"github.com/healthlane/claimflow/internal/logger"
	"github.com/healthlane/claimflow/internal/migration"
	obsmetrics "github.com/healthlane/claimflow/internal/observability/metrics"
	"github.com/healthlane/claimflow/internal/providers/email"
	"github.com/healthlane/claimflow/internal/scheduler"
	"github.com/healthlane/claimflow/pkg/db"
	"go.uber.org/fx"
)

// Headless sweep runner for deployments that keep batch processing out of the
// API process.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		obsmetrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		insurer.Module,
		batch.Module,
		email.Module,

		// No server module.
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
