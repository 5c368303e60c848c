package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateUserRequest struct {
	Email    string
	Password string
	Role     string
	OrgID    *snowflake.ID
	Active   *bool
}

type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SetUserActive(ctx context.Context, id string, active bool) error
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a raw session token to its active user.
	Authenticate(ctx context.Context, rawToken string) (*User, error)
}
