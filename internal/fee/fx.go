package fee

import (
	"github.com/Sasidhar-2001/HMS/internal/fee/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fee.service",
	fx.Provide(service.NewService),
)
