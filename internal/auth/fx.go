package auth

import (
	"go.uber.org/fx"

	"github.com/pelletworks/pelletport/internal/auth/repository"
	"github.com/pelletworks/pelletport/internal/auth/service"
	"github.com/pelletworks/pelletport/internal/auth/session"
)

var Module = fx.Module("auth.service",
	fx.Provide(
		repository.NewUserRepository,
		repository.NewSessionRepository,
		service.New,
		session.NewManager,
	),
)
