package occupancy

import (
	"github.com/Sasidhar-2001/HMS/internal/occupancy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("occupancy.service",
	fx.Provide(service.NewService),
)
