package site

import (
	"go.uber.org/fx"

	"github.com/pelletworks/pelletport/internal/site/repository"
	"github.com/pelletworks/pelletport/internal/site/service"
)

var Module = fx.Module("site.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
