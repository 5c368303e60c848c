package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCreated Status = "CREATED"
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
)

// Invoice is immutable once issued except for its payment status.
// Corrections require a fresh instrument, never an edit.
type Invoice struct {
	ID          int64            `json:"id" gorm:"primaryKey"`
	BatchID     int64            `json:"batch_id" gorm:"not null;uniqueIndex:ux_invoices_batch"`
	Number      string           `json:"number" gorm:"type:text;not null;uniqueIndex:ux_invoices_number"`
	Subtotal    decimal.Decimal  `json:"subtotal" gorm:"type:numeric(14,2);not null"`
	GSTType     string           `json:"gst_type" gorm:"type:text;not null"`
	GSTRate     decimal.Decimal  `json:"gst_rate" gorm:"type:numeric(5,2);not null"`
	GSTAmount   decimal.Decimal  `json:"gst_amount" gorm:"type:numeric(14,2);not null"`
	CGST        *decimal.Decimal `json:"cgst,omitempty" gorm:"type:numeric(14,2)"`
	SGST        *decimal.Decimal `json:"sgst,omitempty" gorm:"type:numeric(14,2)"`
	TotalAmount decimal.Decimal  `json:"total_amount" gorm:"type:numeric(14,2);not null"`
	Status      Status           `json:"status" gorm:"type:text;not null"`
	CreatedAt   time.Time        `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Invoice) TableName() string { return "invoices" }
