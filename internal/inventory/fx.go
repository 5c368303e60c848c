package inventory

import (
	"go.uber.org/fx"

	"github.com/pelletworks/pelletport/internal/inventory/ledger"
	"github.com/pelletworks/pelletport/internal/inventory/service"
)

var Module = fx.Module("inventory.service",
	fx.Provide(ledger.New),
	fx.Provide(service.New),
)
