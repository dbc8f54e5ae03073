package billing

import (
	"github.com/Sasidhar-2001/HMS/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(service.NewService),
)
