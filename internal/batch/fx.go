package batch

import (
	"github.com/healthlane/claimflow/internal/batch/repository"
	"github.com/healthlane/claimflow/internal/batch/service"
	"go.uber.org/fx"
)

var Module = fx.Module("batch.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
