package audit

import (
	"github.com/pelletworks/pelletport/internal/audit/repository"
	"github.com/pelletworks/pelletport/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
