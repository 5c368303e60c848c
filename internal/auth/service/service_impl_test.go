package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/pelletworks/pelletport/internal/auth/domain"
	"github.com/pelletworks/pelletport/internal/auth/repository"
	"github.com/pelletworks/pelletport/internal/auth/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_auth_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			org_id BIGINT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_users_email ON users(email)`,
		`CREATE TABLE sessions (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			session_token_hash TEXT NOT NULL,
			user_agent TEXT,
			ip_address TEXT,
			expires_at TIMESTAMP NOT NULL,
			revoked_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			last_seen_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_sessions_token_hash ON sessions(session_token_hash)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newAuthService(t *testing.T, db *gorm.DB) domain.Service {
	t.Helper()

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	return service.New(service.Params{
		Log:         zap.NewNop(),
		GenID:       node,
		Repo:        repository.NewUserRepository(db),
		SessionRepo: repository.NewSessionRepository(db),
	})
}

func TestCreateUserAndLogin(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAuthService(t, db)

	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "Ops@PelletPort.example",
		Password: "s3cret-pass",
		Role:     "ops",
	})
	require.NoError(t, err)
	require.Equal(t, "ops@pelletport.example", user.Email)
	require.Equal(t, domain.RoleOps, user.Role)
	require.True(t, user.Active)

	result, err := svc.Login(ctx, domain.LoginRequest{
		Email:    "ops@pelletport.example",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.RawToken)
	require.True(t, result.ExpiresAt.After(time.Now()))

	authed, err := svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAuthService(t, db)

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "finance@pelletport.example",
		Password: "correct-horse",
		Role:     "FINANCE",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{
		Email:    "finance@pelletport.example",
		Password: "wrong-horse",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAuthService(t, db)

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "admin@pelletport.example",
		Password: "s3cret-pass",
		Role:     "ADMIN",
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "ADMIN@pelletport.example",
		Password: "another-pass",
		Role:     "ADMIN",
	})
	require.ErrorIs(t, err, domain.ErrUserExists)
}

func TestBuyerRequiresOrganization(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAuthService(t, db)

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "buyer@shakti.example",
		Password: "s3cret-pass",
		Role:     "BUYER",
	})
	require.ErrorIs(t, err, domain.ErrMissingOrg)

	orgID := snowflake.ID(42)
	buyer, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "buyer@shakti.example",
		Password: "s3cret-pass",
		Role:     "BUYER",
		OrgID:    &orgID,
	})
	require.NoError(t, err)
	require.NotNil(t, buyer.OrgID)
	require.Equal(t, orgID, *buyer.OrgID)
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAuthService(t, db)

	_, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "ops@pelletport.example",
		Password: "s3cret-pass",
		Role:     "OPS",
	})
	require.NoError(t, err)

	result, err := svc.Login(ctx, domain.LoginRequest{
		Email:    "ops@pelletport.example",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.RawToken))

	_, err = svc.Authenticate(ctx, result.RawToken)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestInactiveUserCannotLogin(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newAuthService(t, db)

	user, err := svc.CreateUser(ctx, domain.CreateUserRequest{
		Email:    "ops@pelletport.example",
		Password: "s3cret-pass",
		Role:     "OPS",
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetUserActive(ctx, user.ID.String(), false))

	_, err = svc.Login(ctx, domain.LoginRequest{
		Email:    "ops@pelletport.example",
		Password: "s3cret-pass",
	})
	require.ErrorIs(t, err, domain.ErrUserInactive)
}
