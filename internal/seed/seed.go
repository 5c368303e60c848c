// Package seed bootstraps the records a fresh deployment needs before
// anyone can log in: the seller organization and the first admin account.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
	"github.com/pelletworks/pelletport/internal/auth/password"
	organizationdomain "github.com/pelletworks/pelletport/internal/organization/domain"
	"gorm.io/gorm"
)

const (
	defaultSellerOrgName  = "PelletPort Operator"
	defaultSellerOrgState = "Maharashtra"
)

// EnsureSellerOrg seeds the seller's own organization. When orgID is zero a
// fresh snowflake ID is generated; otherwise the configured ID is used so the
// rest of the system can reference it.
func EnsureSellerOrg(db *gorm.DB, orgID int64) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := ensureSellerOrgTx(ctx, tx, node, orgID)
		return err
	})
}

// EnsureSellerOrgAndAdmin seeds the seller organization plus a bootstrap
// admin user so the portal is usable out of the box.
func EnsureSellerOrgAndAdmin(db *gorm.DB, orgID int64, adminEmail, adminPassword string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if adminEmail == "" || adminPassword == "" {
		return errors.New("bootstrap admin credentials are required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ensureSellerOrgTx(ctx, tx, node, orgID); err != nil {
			return err
		}

		email := strings.ToLower(strings.TrimSpace(adminEmail))

		var user authdomain.User
		err := tx.WithContext(ctx).
			Where("email = ?", email).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(adminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:           node.Generate(),
			Email:        email,
			PasswordHash: hashed,
			Role:         authdomain.RoleAdmin,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

func ensureSellerOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID int64) (*organizationdomain.Organization, error) {
	var org organizationdomain.Organization

	query := tx.WithContext(ctx)
	if orgID != 0 {
		query = query.Where("id = ?", orgID)
	} else {
		query = query.Where("name = ?", defaultSellerOrgName)
	}

	err := query.First(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id := orgID
	if id == 0 {
		id = node.Generate().Int64()
	}
	now := time.Now().UTC()
	org = organizationdomain.Organization{
		ID:        id,
		Name:      defaultSellerOrgName,
		State:     defaultSellerOrgState,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}
