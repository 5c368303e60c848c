package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IssueRequest carries everything the issuer needs to price one batch.
type IssueRequest struct {
	BatchID     int64
	QuantityMT  decimal.Decimal
	PricePMT    decimal.Decimal
	BuyerState  string
	SellerState string
	RatePercent decimal.Decimal
}

// Issuer runs inside the batch-creation transaction so a batch can never
// exist without its invoice. RecomputeStatus re-derives the payment status
// from the verified payment sum and is called by the payment workflow.
type Issuer interface {
	IssueForBatch(ctx context.Context, tx *gorm.DB, req IssueRequest) (*Invoice, error)
	RecomputeStatus(ctx context.Context, tx *gorm.DB, invoiceID int64) (Status, error)
}

type Service interface {
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	RenderData(ctx context.Context, id string) (*RenderData, error)
}

type ListRequest struct {
	OrderID string
	Status  string
}

type Response struct {
	ID          string           `json:"id"`
	BatchID     string           `json:"batch_id"`
	Number      string           `json:"number"`
	Subtotal    decimal.Decimal  `json:"subtotal"`
	GSTType     string           `json:"gst_type"`
	GSTRate     decimal.Decimal  `json:"gst_rate"`
	GSTAmount   decimal.Decimal  `json:"gst_amount"`
	CGST        *decimal.Decimal `json:"cgst,omitempty"`
	SGST        *decimal.Decimal `json:"sgst,omitempty"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Status      Status           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}

// RenderData is the denormalized snapshot the PDF renderer works from.
type RenderData struct {
	Invoice     Response
	BuyerName   string
	BuyerGSTIN  *string
	BuyerState  string
	SiteName    string
	SiteCity    string
	SiteState   string
	ProductSKU  string
	ProductName string
	QuantityMT  decimal.Decimal
	PricePMT    decimal.Decimal
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
	ErrNotInvoiceOwner = errors.New("not_invoice_owner")
	ErrNumberExhausted = errors.New("invoice_number_exhausted")
)
