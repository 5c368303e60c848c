package domain

import "time"

// Site is a seller production plant. Its state decides whether a sale is
// intra-state or inter-state for tax purposes.
type Site struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:text;not null"`
	City      string    `json:"city" gorm:"type:text;not null"`
	State     string    `json:"state" gorm:"type:text;not null"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Site) TableName() string { return "sites" }
