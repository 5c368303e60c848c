package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	invoicedomain "github.com/pelletworks/pelletport/internal/invoice/domain"
)

type Service interface {
	Record(ctx context.Context, req RecordRequest) (*Response, error)
	Verify(ctx context.Context, paymentID string, approve bool) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	AttachProof(ctx context.Context, paymentID string, proofRef string) (*Response, error)
}

type RecordRequest struct {
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Mode      string          `json:"mode"`
	ProofRef  *string         `json:"proof_ref"`
}

type ListRequest struct {
	InvoiceID string
	Verified  *bool
}

type Response struct {
	ID            string               `json:"id"`
	InvoiceID     string               `json:"invoice_id"`
	Amount        decimal.Decimal      `json:"amount"`
	Mode          string               `json:"mode"`
	ProofRef      *string              `json:"proof_ref,omitempty"`
	Verified      bool                 `json:"verified"`
	RecordedBy    string               `json:"recorded_by"`
	VerifiedBy    *string              `json:"verified_by,omitempty"`
	InvoiceStatus invoicedomain.Status `json:"invoice_status,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidMode     = errors.New("invalid_mode")
	ErrNotFound        = errors.New("not_found")
	ErrNotInvoiceOwner = errors.New("not_invoice_owner")
	ErrMissingActor    = errors.New("missing_actor")
	ErrMissingProof    = errors.New("missing_proof")
)
