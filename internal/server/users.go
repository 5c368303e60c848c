package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
)

type CreateUserRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	OrgID    *string `json:"org_id"`
}

type SetUserActiveRequest struct {
	Active *bool `json:"active"`
}

type UserResponse struct {
	ID     string  `json:"id"`
	Email  string  `json:"email"`
	Role   string  `json:"role"`
	OrgID  *string `json:"org_id,omitempty"`
	Active bool    `json:"active"`
}

func (s *Server) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createReq := authdomain.CreateUserRequest{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}
	if req.OrgID != nil && strings.TrimSpace(*req.OrgID) != "" {
		orgID, err := snowflake.ParseString(strings.TrimSpace(*req.OrgID))
		if err != nil {
			AbortWithError(c, newValidationError("org_id", "invalid_org_id", "invalid organization id"))
			return
		}
		createReq.OrgID = &orgID
	}

	user, err := s.authsvc.CreateUser(c.Request.Context(), createReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), "user.created", "user", user.ID.String(), map[string]any{
		"email": user.Email,
		"role":  string(user.Role),
	})

	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) ListUsers(c *gin.Context) {
	users, err := s.authsvc.ListUsers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": resp})
}

func (s *Server) SetUserActive(c *gin.Context) {
	var req SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := c.Param("id")
	if err := s.authsvc.SetUserActive(c.Request.Context(), id, *req.Active); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditSvc.Record(c.Request.Context(), "user.active_changed", "user", id, map[string]any{
		"active": *req.Active,
	})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func toUserResponse(u *authdomain.User) UserResponse {
	resp := UserResponse{
		ID:     u.ID.String(),
		Email:  u.Email,
		Role:   string(u.Role),
		Active: u.Active,
	}
	if u.OrgID != nil {
		v := u.OrgID.String()
		resp.OrgID = &v
	}
	return resp
}
