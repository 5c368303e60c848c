// Package domain contains core types for authentication and identity.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role is the closed set of portal roles.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleOps     Role = "OPS"
	RoleFinance Role = "FINANCE"
	RoleBuyer   Role = "BUYER"
)

// ParseRole normalizes a raw role string against the closed enumeration.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOps:
		return RoleOps, true
	case RoleFinance:
		return RoleFinance, true
	case RoleBuyer:
		return RoleBuyer, true
	default:
		return "", false
	}
}

// Staff reports whether the role belongs to internal staff.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleOps || r == RoleFinance
}

// User represents a portal account.
type User struct {
	ID           snowflake.ID  `gorm:"primaryKey"`
	Email        string        `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string        `gorm:"type:text;not null"`
	Role         Role          `gorm:"type:text;not null"`
	OrgID        *snowflake.ID `gorm:"column:org_id;index"`
	Active       bool          `gorm:"not null;default:true"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (User) TableName() string { return "users" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

func (Session) TableName() string { return "sessions" }
