package room

import (
	"github.com/Sasidhar-2001/HMS/internal/room/service"
	"go.uber.org/fx"
)

var Module = fx.Module("room.service",
	fx.Provide(service.NewService),
)
