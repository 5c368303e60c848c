package server

import (
	"github.com/gin-gonic/gin"
	"github.com/pelletworks/pelletport/internal/authctx"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the session cookie to a user and stores the
// identity on the request context for downstream services.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		identity := authctx.Identity{
			UserID: user.ID,
			Role:   user.Role,
		}
		if user.OrgID != nil {
			identity.OrgID = *user.OrgID
		}

		ctx := authctx.WithIdentity(c.Request.Context(), identity)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, user.ID.String())
		c.Next()
	}
}

// Authorize gates a route on the RBAC policy for (object, action).
func (s *Server) Authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authctx.IdentityFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Authorize(c.Request.Context(), identity.Role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
