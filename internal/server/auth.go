package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
	"github.com/pelletworks/pelletport/internal/authctx"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type MeResponse struct {
	UserID string  `json:"user_id"`
	Email  string  `json:"email"`
	Role   string  `json:"role"`
	OrgID  *string `json:"org_id,omitempty"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.TrimSpace(req.Email)
	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:     email,
		Password:  req.Password,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		s.auditSvc.Record(c.Request.Context(), "user.login_failed", "user", "", map[string]any{
			"email": email,
		})
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)

	s.auditSvc.Record(c.Request.Context(), "user.login", "user", result.User.ID.String(), map[string]any{
		"email": result.User.Email,
	})

	c.JSON(http.StatusOK, MeResponse{
		UserID: result.User.ID.String(),
		Email:  result.User.Email,
		Role:   string(result.User.Role),
		OrgID:  orgIDString(result.User),
	})
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
			s.log.Warn("logout failed", zap.Error(err))
		}
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	identity, ok := authctx.IdentityFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp := MeResponse{
		UserID: identity.UserID.String(),
		Role:   string(identity.Role),
	}
	if identity.OrgID != 0 {
		org := identity.OrgID.String()
		resp.OrgID = &org
	}
	c.JSON(http.StatusOK, resp)
}

func orgIDString(u *authdomain.User) *string {
	if u == nil || u.OrgID == nil {
		return nil
	}
	v := u.OrgID.String()
	return &v
}
