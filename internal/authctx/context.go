// Package authctx carries the authenticated identity through request contexts.
package authctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
)

// Identity is the (user, role, org) triple every guarded operation runs as.
type Identity struct {
	UserID snowflake.ID
	Role   authdomain.Role
	OrgID  snowflake.ID
}

type identityKey struct{}

// WithIdentity stores the identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity from context, if set.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == 0 {
		return Identity{}, false
	}
	return id, true
}
