package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ModeNEFT   = "NEFT"
	ModeRTGS   = "RTGS"
	ModeUPI    = "UPI"
	ModeCheque = "CHEQUE"
)

// Payment is a claimed remittance against an invoice. Buyer-submitted
// payments start unverified; staff-submitted ones are trusted on entry.
type Payment struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	InvoiceID  int64           `json:"invoice_id" gorm:"not null;index"`
	Amount     decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	Mode       string          `json:"mode" gorm:"type:text;not null"`
	ProofRef   *string         `json:"proof_ref,omitempty" gorm:"type:text"`
	Verified   bool            `json:"verified" gorm:"not null;default:false"`
	RecordedBy int64           `json:"recorded_by" gorm:"not null"`
	VerifiedBy *int64          `json:"verified_by,omitempty"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "payments" }
