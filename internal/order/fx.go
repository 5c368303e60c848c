package order

import (
	"go.uber.org/fx"

	"github.com/pelletworks/pelletport/internal/order/service"
)

var Module = fx.Module("order.service",
	fx.Provide(service.New),
)
