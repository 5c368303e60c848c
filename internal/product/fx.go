package product

import (
	"go.uber.org/fx"

	"github.com/pelletworks/pelletport/internal/product/repository"
	"github.com/pelletworks/pelletport/internal/product/service"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
