package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger is the only mutation path for inventory rows. Reserve and Release
// run inside the caller's transaction so a batch write and its stock debit
// commit or roll back together.
type Ledger interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID, siteID int64, quantityMT decimal.Decimal, actorID *int64) (*Inventory, error)
	Release(ctx context.Context, tx *gorm.DB, productID, siteID int64, quantityMT decimal.Decimal, actorID *int64) (*Inventory, error)
}

type Service interface {
	SetAvailable(ctx context.Context, req SetAvailableRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	History(ctx context.Context, req HistoryRequest) ([]HistoryResponse, error)
}

type SetAvailableRequest struct {
	ProductID   string          `json:"product_id"`
	SiteID      string          `json:"site_id"`
	AvailableMT decimal.Decimal `json:"available_mt"`
}

type ListRequest struct {
	ProductID string
	SiteID    string
}

type HistoryRequest struct {
	ProductID string
	SiteID    string
	Limit     int
}

type Response struct {
	ProductID     string          `json:"product_id"`
	SiteID        string          `json:"site_id"`
	AvailableMT   decimal.Decimal `json:"available_mt"`
	ReservedMT    decimal.Decimal `json:"reserved_mt"`
	LastUpdatedBy *string         `json:"last_updated_by,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type HistoryResponse struct {
	ProductID   string          `json:"product_id"`
	SiteID      string          `json:"site_id"`
	AvailableMT decimal.Decimal `json:"available_mt"`
	ReservedMT  decimal.Decimal `json:"reserved_mt"`
	ChangeMT    decimal.Decimal `json:"change_mt"`
	Reason      string          `json:"reason"`
	RecordedBy  *string         `json:"recorded_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

var (
	ErrInvalidQuantity         = errors.New("invalid_quantity")
	ErrInvalidID               = errors.New("invalid_id")
	ErrInsufficientInventory   = errors.New("insufficient_inventory")
	ErrInventoryNotInitialized = errors.New("inventory_not_initialized")
)
