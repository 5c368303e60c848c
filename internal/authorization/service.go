package authorization

import (
	"context"
	"errors"

	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service answers whether a role may perform an action on an object.
type Service interface {
	Authorize(ctx context.Context, role authdomain.Role, object string, action string) error
}
