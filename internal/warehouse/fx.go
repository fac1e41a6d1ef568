package warehouse

import (
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/warehouse/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("warehouse",
	fx.Provide(repository.Provide),
)
