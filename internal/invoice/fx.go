package invoice

import (
	"go.uber.org/fx"

	"github.com/pelletworks/pelletport/internal/invoice/service"
)

var Module = fx.Module("invoice.service",
	fx.Provide(service.New),
)
