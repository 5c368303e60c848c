package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
	"github.com/pelletworks/pelletport/internal/authctx"
	"github.com/pelletworks/pelletport/internal/gst"
	"github.com/pelletworks/pelletport/internal/invoice/domain"
	"github.com/pelletworks/pelletport/pkg/db"
)

const numberAttempts = 5

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) (domain.Issuer, domain.Service) {
	s := &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
	}
	return s, s
}

// IssueForBatch prices the batch, computes the tax split and persists the
// invoice inside the caller's transaction. Number collisions trigger a
// regenerate, bounded so a broken unique index cannot loop forever.
func (s *Service) IssueForBatch(ctx context.Context, tx *gorm.DB, req domain.IssueRequest) (*domain.Invoice, error) {
	subtotal := req.QuantityMT.Mul(req.PricePMT).Round(2)
	breakdown, err := gst.Calculate(subtotal, req.BuyerState, req.SellerState, req.RatePercent)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv := &domain.Invoice{
		ID:          s.genID.Generate().Int64(),
		BatchID:     req.BatchID,
		Subtotal:    subtotal,
		GSTType:     string(breakdown.Type),
		GSTRate:     breakdown.Rate,
		GSTAmount:   breakdown.Amount,
		CGST:        breakdown.CGST,
		SGST:        breakdown.SGST,
		TotalAmount: breakdown.Total,
		Status:      domain.StatusCreated,
		CreatedAt:   now,
	}

	for attempt := 0; attempt < numberAttempts; attempt++ {
		inv.Number = nextInvoiceNumber(now)
		err := tx.WithContext(ctx).Exec(
			`INSERT INTO invoices (id, batch_id, number, subtotal, gst_type, gst_rate, gst_amount, cgst, sgst, total_amount, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inv.ID,
			inv.BatchID,
			inv.Number,
			inv.Subtotal,
			inv.GSTType,
			inv.GSTRate,
			inv.GSTAmount,
			inv.CGST,
			inv.SGST,
			inv.TotalAmount,
			inv.Status,
			inv.CreatedAt,
		).Error
		if err == nil {
			return inv, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		s.log.Warn("invoice number collision, regenerating",
			zap.String("number", inv.Number),
			zap.Int("attempt", attempt+1))
	}
	return nil, domain.ErrNumberExhausted
}

// RecomputeStatus re-derives the payment status from persisted payments:
// PAID once the verified sum covers the total, PENDING while any payment
// exists, CREATED otherwise.
func (s *Service) RecomputeStatus(ctx context.Context, tx *gorm.DB, invoiceID int64) (domain.Status, error) {
	var inv domain.Invoice
	if err := tx.WithContext(ctx).First(&inv, "id = ?", invoiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrNotFound
		}
		return "", err
	}

	var row struct {
		VerifiedSum  decimal.Decimal
		PaymentCount int64
	}
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(CASE WHEN verified THEN amount ELSE 0 END), 0) AS verified_sum,
		        COUNT(1) AS payment_count
		 FROM payments
		 WHERE invoice_id = ?`,
		invoiceID,
	).Scan(&row).Error
	if err != nil {
		return "", err
	}

	status := domain.StatusCreated
	switch {
	case row.PaymentCount > 0 && row.VerifiedSum.GreaterThanOrEqual(inv.TotalAmount):
		status = domain.StatusPaid
	case row.PaymentCount > 0:
		status = domain.StatusPending
	}

	if status == inv.Status {
		return status, nil
	}
	if err := tx.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ? WHERE id = ?`, status, invoiceID,
	).Error; err != nil {
		return "", err
	}
	return status, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || invoiceID == 0 {
		return nil, domain.ErrInvalidID
	}

	var inv domain.Invoice
	if err := s.db.WithContext(ctx).First(&inv, "id = ?", invoiceID.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if err := s.checkBuyerAccess(ctx, inv.BatchID); err != nil {
		return nil, err
	}

	resp := toResponse(&inv)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	stmt := s.db.WithContext(ctx).Model(&domain.Invoice{})

	if identity, ok := authctx.IdentityFromContext(ctx); ok && identity.Role == authdomain.RoleBuyer {
		stmt = stmt.Where(
			`batch_id IN (SELECT b.id FROM order_batches b
			              JOIN orders o ON o.id = b.order_id
			              WHERE o.buyer_org_id = ?)`,
			identity.OrgID.Int64(),
		)
	}

	if trimmed := strings.TrimSpace(req.OrderID); trimmed != "" {
		orderID, err := snowflake.ParseString(trimmed)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		stmt = stmt.Where("batch_id IN (SELECT id FROM order_batches WHERE order_id = ?)", orderID.Int64())
	}
	if trimmed := strings.TrimSpace(req.Status); trimmed != "" {
		stmt = stmt.Where("status = ?", strings.ToUpper(trimmed))
	}

	var items []domain.Invoice
	if err := stmt.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

// RenderData assembles the denormalized snapshot a PDF render needs, so
// documents stay re-derivable from persisted rows alone.
func (s *Service) RenderData(ctx context.Context, id string) (*domain.RenderData, error) {
	invoiceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || invoiceID == 0 {
		return nil, domain.ErrInvalidID
	}

	var inv domain.Invoice
	if err := s.db.WithContext(ctx).First(&inv, "id = ?", invoiceID.Int64()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if err := s.checkBuyerAccess(ctx, inv.BatchID); err != nil {
		return nil, err
	}

	var row struct {
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
	err = s.db.WithContext(ctx).Raw(
		`SELECT org.name AS buyer_name, org.gstin AS buyer_gstin, org.state AS buyer_state,
		        st.name AS site_name, st.city AS site_city, st.state AS site_state,
		        p.sku AS product_sku, p.name AS product_name, p.price_pmt AS price_pmt,
		        b.quantity_mt AS quantity_mt
		 FROM order_batches b
		 JOIN orders o ON o.id = b.order_id
		 JOIN organizations org ON org.id = o.buyer_org_id
		 JOIN products p ON p.id = b.product_id
		 JOIN sites st ON st.id = b.site_id
		 WHERE b.id = ?`,
		inv.BatchID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.BuyerName == "" {
		return nil, domain.ErrNotFound
	}

	return &domain.RenderData{
		Invoice:     toResponse(&inv),
		BuyerName:   row.BuyerName,
		BuyerGSTIN:  row.BuyerGSTIN,
		BuyerState:  row.BuyerState,
		SiteName:    row.SiteName,
		SiteCity:    row.SiteCity,
		SiteState:   row.SiteState,
		ProductSKU:  row.ProductSKU,
		ProductName: row.ProductName,
		QuantityMT:  row.QuantityMT,
		PricePMT:    row.PricePMT,
	}, nil
}

// checkBuyerAccess restricts buyer reads to invoices raised against their
// own organization's orders. Staff roles pass through.
func (s *Service) checkBuyerAccess(ctx context.Context, batchID int64) error {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok || identity.Role != authdomain.RoleBuyer {
		return nil
	}

	var buyerOrgID int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT o.buyer_org_id
		 FROM order_batches b
		 JOIN orders o ON o.id = b.order_id
		 WHERE b.id = ?`,
		batchID,
	).Scan(&buyerOrgID).Error
	if err != nil {
		return err
	}
	if buyerOrgID == 0 {
		return domain.ErrNotFound
	}
	if buyerOrgID != identity.OrgID.Int64() {
		return domain.ErrNotInvoiceOwner
	}
	return nil
}

func nextInvoiceNumber(now time.Time) string {
	id := ulid.Make().String()
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), id[len(id)-8:])
}

func toResponse(inv *domain.Invoice) domain.Response {
	return domain.Response{
		ID:          snowflake.ID(inv.ID).String(),
		BatchID:     snowflake.ID(inv.BatchID).String(),
		Number:      inv.Number,
		Subtotal:    inv.Subtotal,
		GSTType:     inv.GSTType,
		GSTRate:     inv.GSTRate,
		GSTAmount:   inv.GSTAmount,
		CGST:        inv.CGST,
		SGST:        inv.SGST,
		TotalAmount: inv.TotalAmount,
		Status:      inv.Status,
		CreatedAt:   inv.CreatedAt,
	}
}
