package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/pelletworks/pelletport/internal/audit/domain"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
	"github.com/pelletworks/pelletport/internal/authctx"
	invoicedomain "github.com/pelletworks/pelletport/internal/invoice/domain"
	"github.com/pelletworks/pelletport/internal/observability/metrics"
	"github.com/pelletworks/pelletport/internal/payment/domain"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Issuer   invoicedomain.Issuer
	AuditSvc auditdomain.Service
	Metrics  *metrics.Metrics
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	issuer   invoicedomain.Issuer
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		issuer:   p.Issuer,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

// Record logs a remittance claim. Staff-submitted payments are verified on
// entry; buyer submissions wait for finance. The invoice status is
// re-derived in the same transaction.
func (s *Service) Record(ctx context.Context, req domain.RecordRequest) (*domain.Response, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrMissingActor
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(req.InvoiceID))
	if err != nil || invoiceID == 0 {
		return nil, domain.ErrInvalidID
	}
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	mode := strings.ToUpper(strings.TrimSpace(req.Mode))
	switch mode {
	case domain.ModeNEFT, domain.ModeRTGS, domain.ModeUPI, domain.ModeCheque:
	default:
		return nil, domain.ErrInvalidMode
	}

	var proofRef *string
	if req.ProofRef != nil {
		if trimmed := strings.TrimSpace(*req.ProofRef); trimmed != "" {
			proofRef = &trimmed
		}
	}

	verified := identity.Role != authdomain.RoleBuyer

	var (
		payment *domain.Payment
		status  invoicedomain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkInvoiceAccess(ctx, tx, invoiceID.Int64(), identity); err != nil {
			return err
		}

		now := time.Now().UTC()
		payment = &domain.Payment{
			ID:         s.genID.Generate().Int64(),
			InvoiceID:  invoiceID.Int64(),
			Amount:     req.Amount,
			Mode:       mode,
			ProofRef:   proofRef,
			Verified:   verified,
			RecordedBy: identity.UserID.Int64(),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if verified {
			actorID := identity.UserID.Int64()
			payment.VerifiedBy = &actorID
		}
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO payments (id, invoice_id, amount, mode, proof_ref, verified, recorded_by, verified_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			payment.ID,
			payment.InvoiceID,
			payment.Amount,
			payment.Mode,
			payment.ProofRef,
			payment.Verified,
			payment.RecordedBy,
			payment.VerifiedBy,
			payment.CreatedAt,
			payment.UpdatedAt,
		).Error; err != nil {
			return err
		}

		status, err = s.issuer.RecomputeStatus(ctx, tx, payment.InvoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "payment.recorded", "payment", snowflake.ID(payment.ID).String(), map[string]any{
		"invoice_id": invoiceID.String(),
		"amount":     payment.Amount.String(),
		"mode":       payment.Mode,
		"verified":   payment.Verified,
	})
	s.metrics.RecordPaymentRecorded(ctx, payment.Mode)

	resp := toResponse(payment, status)
	return &resp, nil
}

// Verify flips the verified flag. Calling it again with the same value is
// a no-op on the row and still recomputes the invoice to the same status.
func (s *Service) Verify(ctx context.Context, paymentID string, approve bool) (*domain.Response, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrMissingActor
	}

	id, err := snowflake.ParseString(strings.TrimSpace(paymentID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	var (
		payment *domain.Payment
		status  invoicedomain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Payment
		if err := tx.WithContext(ctx).First(&p, "id = ?", id.Int64()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		if p.Verified != approve {
			actorID := identity.UserID.Int64()
			p.Verified = approve
			if approve {
				p.VerifiedBy = &actorID
			} else {
				p.VerifiedBy = nil
			}
			p.UpdatedAt = time.Now().UTC()
			if err := tx.WithContext(ctx).Exec(
				`UPDATE payments SET verified = ?, verified_by = ?, updated_at = ? WHERE id = ?`,
				p.Verified,
				p.VerifiedBy,
				p.UpdatedAt,
				p.ID,
			).Error; err != nil {
				return err
			}
		}

		var err error
		status, err = s.issuer.RecomputeStatus(ctx, tx, p.InvoiceID)
		if err != nil {
			return err
		}
		payment = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "payment.verified", "payment", id.String(), map[string]any{
		"approve": approve,
	})
	s.metrics.RecordPaymentVerified(ctx, approve)

	resp := toResponse(payment, status)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	stmt := s.db.WithContext(ctx).Model(&domain.Payment{})

	if trimmed := strings.TrimSpace(req.InvoiceID); trimmed != "" {
		invoiceID, err := snowflake.ParseString(trimmed)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		stmt = stmt.Where("invoice_id = ?", invoiceID.Int64())
	}
	if req.Verified != nil {
		stmt = stmt.Where("verified = ?", *req.Verified)
	}

	// Buyers only see payments on their own organization's invoices.
	if identity, ok := authctx.IdentityFromContext(ctx); ok && identity.Role == authdomain.RoleBuyer {
		stmt = stmt.Where(
			`invoice_id IN (
				SELECT i.id FROM invoices i
				JOIN order_batches b ON b.id = i.batch_id
				JOIN orders o ON o.id = b.order_id
				WHERE o.buyer_org_id = ?
			)`,
			identity.OrgID.Int64(),
		)
	}

	var items []domain.Payment
	if err := stmt.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i], ""))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	paymentID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || paymentID == 0 {
		return nil, domain.ErrInvalidID
	}

	var p domain.Payment
	if err := s.db.WithContext(ctx).First(&p, "id = ?", paymentID.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if identity, ok := authctx.IdentityFromContext(ctx); ok && identity.Role == authdomain.RoleBuyer {
		if err := s.checkInvoiceAccess(ctx, s.db, p.InvoiceID, identity); err != nil {
			return nil, err
		}
	}

	resp := toResponse(&p, "")
	return &resp, nil
}

// AttachProof links an uploaded evidence object to a payment. Buyers may
// only attach to their own payments.
func (s *Service) AttachProof(ctx context.Context, paymentID string, proofRef string) (*domain.Response, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrMissingActor
	}

	id, err := snowflake.ParseString(strings.TrimSpace(paymentID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}
	ref := strings.TrimSpace(proofRef)
	if ref == "" {
		return nil, domain.ErrMissingProof
	}

	var p domain.Payment
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if identity.Role == authdomain.RoleBuyer && p.RecordedBy != identity.UserID.Int64() {
		return nil, domain.ErrNotInvoiceOwner
	}

	p.ProofRef = &ref
	p.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Exec(
		`UPDATE payments SET proof_ref = ?, updated_at = ? WHERE id = ?`,
		p.ProofRef,
		p.UpdatedAt,
		p.ID,
	).Error; err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "payment.proof_attached", "payment", id.String(), map[string]any{
		"proof_ref": ref,
	})

	resp := toResponse(&p, "")
	return &resp, nil
}

// checkInvoiceAccess confirms the invoice exists and, for buyers, that it
// belongs to the caller's organization.
func (s *Service) checkInvoiceAccess(ctx context.Context, db *gorm.DB, invoiceID int64, identity authctx.Identity) error {
	var buyerOrgID int64
	err := db.WithContext(ctx).Raw(
		`SELECT o.buyer_org_id
		 FROM invoices i
		 JOIN order_batches b ON b.id = i.batch_id
		 JOIN orders o ON o.id = b.order_id
		 WHERE i.id = ?`,
		invoiceID,
	).Scan(&buyerOrgID).Error
	if err != nil {
		return err
	}
	if buyerOrgID == 0 {
		return domain.ErrNotFound
	}
	if identity.Role == authdomain.RoleBuyer && buyerOrgID != identity.OrgID.Int64() {
		return domain.ErrNotInvoiceOwner
	}
	return nil
}

func toResponse(p *domain.Payment, status invoicedomain.Status) domain.Response {
	resp := domain.Response{
		ID:            snowflake.ID(p.ID).String(),
		InvoiceID:     snowflake.ID(p.InvoiceID).String(),
		Amount:        p.Amount,
		Mode:          p.Mode,
		ProofRef:      p.ProofRef,
		Verified:      p.Verified,
		RecordedBy:    snowflake.ID(p.RecordedBy).String(),
		InvoiceStatus: status,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.VerifiedBy != nil {
		actor := snowflake.ID(*p.VerifiedBy).String()
		resp.VerifiedBy = &actor
	}
	return resp
}
