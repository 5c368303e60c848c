package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory holds the free and committed tonnage for one (product, site)
// pair. Rows are mutated only through the ledger, never written directly.
type Inventory struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	ProductID     int64           `json:"product_id" gorm:"not null;uniqueIndex:ux_inventories_product_site,priority:1"`
	SiteID        int64           `json:"site_id" gorm:"not null;uniqueIndex:ux_inventories_product_site,priority:2"`
	AvailableMT   decimal.Decimal `json:"available_mt" gorm:"type:numeric(12,3);not null"`
	ReservedMT    decimal.Decimal `json:"reserved_mt" gorm:"type:numeric(12,3);not null"`
	LastUpdatedBy *int64          `json:"last_updated_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Inventory) TableName() string { return "inventories" }

// InventoryHistory is an append-only snapshot trail, one row per ledger
// mutation.
type InventoryHistory struct {
	ID          int64           `json:"id" gorm:"primaryKey"`
	ProductID   int64           `json:"product_id" gorm:"not null;index"`
	SiteID      int64           `json:"site_id" gorm:"not null;index"`
	AvailableMT decimal.Decimal `json:"available_mt" gorm:"type:numeric(12,3);not null"`
	ReservedMT  decimal.Decimal `json:"reserved_mt" gorm:"type:numeric(12,3);not null"`
	ChangeMT    decimal.Decimal `json:"change_mt" gorm:"type:numeric(12,3);not null"`
	Reason      string          `json:"reason" gorm:"type:text;not null"`
	RecordedBy  *int64          `json:"recorded_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (InventoryHistory) TableName() string { return "inventory_history" }

const (
	HistoryReasonReserve  = "reserve"
	HistoryReasonRelease  = "release"
	HistoryReasonStockSet = "stock_set"
)
