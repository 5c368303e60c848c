package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingApproval OrderStatus = "PENDING_APPROVAL"
	OrderStatusAccepted        OrderStatus = "ACCEPTED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
)

type BatchStatus string

const (
	BatchStatusInvoiced   BatchStatus = "INVOICED"
	BatchStatusInProgress BatchStatus = "IN_PROGRESS"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
)

// Order is a buyer's request for tonnage. It never gets deleted; the
// status column carries its whole lifecycle.
type Order struct {
	ID                  int64           `json:"id" gorm:"primaryKey"`
	BuyerOrgID          int64           `json:"buyer_org_id" gorm:"not null;index"`
	Status              OrderStatus     `json:"status" gorm:"type:text;not null"`
	RequestedQuantityMT decimal.Decimal `json:"requested_quantity_mt" gorm:"type:numeric(12,3);not null"`
	RejectionReason     *string         `json:"rejection_reason,omitempty" gorm:"type:text"`
	CreatedBy           int64           `json:"created_by" gorm:"not null"`
	CreatedAt           time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt           time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Order) TableName() string { return "orders" }

// OrderBatch is a slice of an accepted order fulfilled from one site.
// It is born INVOICED: batch insert, stock reservation and invoice
// issuance commit in one transaction.
type OrderBatch struct {
	ID             int64           `json:"id" gorm:"primaryKey"`
	OrderID        int64           `json:"order_id" gorm:"not null;index"`
	ProductID      int64           `json:"product_id" gorm:"not null"`
	SiteID         int64           `json:"site_id" gorm:"not null"`
	QuantityMT     decimal.Decimal `json:"quantity_mt" gorm:"type:numeric(12,3);not null"`
	Status         BatchStatus     `json:"status" gorm:"type:text;not null"`
	DeliveryAt     *time.Time      `json:"delivery_at,omitempty"`
	LeftFromSiteAt *time.Time      `json:"left_from_site_at,omitempty"`
	CreatedBy      int64           `json:"created_by" gorm:"not null"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OrderBatch) TableName() string { return "order_batches" }
