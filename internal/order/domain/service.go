package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	invoicedomain "github.com/pelletworks/pelletport/internal/invoice/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Accept(ctx context.Context, id string) (*Response, error)
	Reject(ctx context.Context, id string, reason string) (*Response, error)
	CreateBatch(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error)
	StartBatch(ctx context.Context, batchID string) (*BatchResponse, error)
	CompleteBatch(ctx context.Context, batchID string, leftFromSite bool) (*BatchResponse, error)
}

type CreateRequest struct {
	RequestedQuantityMT decimal.Decimal `json:"requested_quantity_mt"`
}

type ListRequest struct {
	Status string
	OrgID  string
}

type CreateBatchRequest struct {
	OrderID    string          `json:"-"`
	ProductID  string          `json:"product_id"`
	SiteID     string          `json:"site_id"`
	QuantityMT decimal.Decimal `json:"quantity_mt"`
	DeliveryAt *time.Time      `json:"delivery_at"`
}

type Response struct {
	ID                  string          `json:"id"`
	BuyerOrgID          string          `json:"buyer_org_id"`
	Status              OrderStatus     `json:"status"`
	RequestedQuantityMT decimal.Decimal `json:"requested_quantity_mt"`
	RejectionReason     *string         `json:"rejection_reason,omitempty"`
	CreatedBy           string          `json:"created_by"`
	Batches             []BatchResponse `json:"batches,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

type BatchResponse struct {
	ID             string                  `json:"id"`
	OrderID        string                  `json:"order_id"`
	ProductID      string                  `json:"product_id"`
	SiteID         string                  `json:"site_id"`
	QuantityMT     decimal.Decimal         `json:"quantity_mt"`
	Status         BatchStatus             `json:"status"`
	DeliveryAt     *time.Time              `json:"delivery_at,omitempty"`
	LeftFromSiteAt *time.Time              `json:"left_from_site_at,omitempty"`
	Invoice        *invoicedomain.Response `json:"invoice,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidQuantity      = errors.New("invalid_quantity")
	ErrMissingReason        = errors.New("missing_reason")
	ErrNotFound             = errors.New("not_found")
	ErrBatchNotFound        = errors.New("batch_not_found")
	ErrInvalidOrderState    = errors.New("invalid_order_state")
	ErrInvalidBatchState    = errors.New("invalid_batch_state")
	ErrQuantityExceedsOrder = errors.New("quantity_exceeds_order")
	ErrPaymentNotApproved   = errors.New("payment_not_approved")
	ErrNotOrderOwner        = errors.New("not_order_owner")
	ErrMissingOrganization  = errors.New("missing_organization")
	ErrProductInactive      = errors.New("product_inactive")
	ErrSiteInactive         = errors.New("site_inactive")
)
