package insurer

import (
	"github.com/healthlane/claimflow/internal/insurer/repository"
	"github.com/healthlane/claimflow/internal/insurer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("insurer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
