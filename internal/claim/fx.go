package claim

import (
	"github.com/healthlane/claimflow/internal/claim/repository"
	"github.com/healthlane/claimflow/internal/claim/service"
	"go.uber.org/fx"
)

var Module = fx.Module("claim.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
