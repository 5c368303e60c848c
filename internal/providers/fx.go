package providers

import (
	"go.uber.org/fx"

	"github.com/pelletworks/pelletport/internal/providers/pdf"
	"github.com/pelletworks/pelletport/internal/providers/storage"
)

var Module = fx.Module("providers",
	fx.Provide(pdf.New),
	fx.Provide(storage.New),
)
