package organization

import (
	"go.uber.org/fx"

	"github.com/pelletworks/pelletport/internal/organization/repository"
	"github.com/pelletworks/pelletport/internal/organization/service"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
