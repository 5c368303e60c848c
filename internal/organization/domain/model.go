package domain

import (
	"time"
)

// Organization is a buying company registered on the portal. The seller's
// own company also lives in this table and is referenced from config.
type Organization struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	GSTIN     *string   `json:"gstin,omitempty" gorm:"type:text"`
	State     string    `json:"state" gorm:"type:text;not null"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Organization) TableName() string { return "organizations" }
