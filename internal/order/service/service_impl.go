package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/pelletworks/pelletport/internal/audit/domain"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
	"github.com/pelletworks/pelletport/internal/authctx"
	"github.com/pelletworks/pelletport/internal/config"
	inventorydomain "github.com/pelletworks/pelletport/internal/inventory/domain"
	invoicedomain "github.com/pelletworks/pelletport/internal/invoice/domain"
	"github.com/pelletworks/pelletport/internal/observability/metrics"
	"github.com/pelletworks/pelletport/internal/order/domain"
	"github.com/pelletworks/pelletport/pkg/db"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Cfg      config.Config
	Ledger   inventorydomain.Ledger
	Issuer   invoicedomain.Issuer
	AuditSvc auditdomain.Service
	Metrics  *metrics.Metrics
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	cfg      config.Config
	ledger   inventorydomain.Ledger
	issuer   invoicedomain.Issuer
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("order.service"),
		genID:    p.GenID,
		cfg:      p.Cfg,
		ledger:   p.Ledger,
		issuer:   p.Issuer,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

// Create opens an order for the caller's organization. Every order enters
// the approval queue; there is no direct-to-accepted path.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	identity, ok := authctx.IdentityFromContext(ctx)
	if !ok {
		return nil, domain.ErrMissingOrganization
	}
	if identity.OrgID == 0 {
		return nil, domain.ErrMissingOrganization
	}
	if !req.RequestedQuantityMT.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:                  s.genID.Generate().Int64(),
		BuyerOrgID:          identity.OrgID.Int64(),
		Status:              domain.OrderStatusPendingApproval,
		RequestedQuantityMT: req.RequestedQuantityMT,
		CreatedBy:           identity.UserID.Int64(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, buyer_org_id, status, requested_quantity_mt, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.BuyerOrgID,
		order.Status,
		order.RequestedQuantityMT,
		order.CreatedBy,
		order.CreatedAt,
		order.UpdatedAt,
	).Error; err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "order.created", "order", snowflake.ID(order.ID).String(), map[string]any{
		"requested_quantity_mt": order.RequestedQuantityMT.String(),
	})
	s.metrics.RecordOrderCreated(ctx)

	resp := s.toResponse(order, nil)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	stmt := s.db.WithContext(ctx).Model(&domain.Order{})

	// Buyers only ever see their own organization's orders.
	if identity, ok := authctx.IdentityFromContext(ctx); ok && identity.Role == authdomain.RoleBuyer {
		stmt = stmt.Where("buyer_org_id = ?", identity.OrgID.Int64())
	} else if trimmed := strings.TrimSpace(req.OrgID); trimmed != "" {
		orgID, err := snowflake.ParseString(trimmed)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		stmt = stmt.Where("buyer_org_id = ?", orgID.Int64())
	}
	if trimmed := strings.TrimSpace(req.Status); trimmed != "" {
		stmt = stmt.Where("status = ?", strings.ToUpper(trimmed))
	}

	var orders []domain.Order
	if err := stmt.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(orders))
	for i := range orders {
		resp = append(resp, s.toResponse(&orders[i], nil))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || orderID == 0 {
		return nil, domain.ErrInvalidID
	}

	order, err := s.loadOrder(ctx, s.db, orderID.Int64())
	if err != nil {
		return nil, err
	}

	if identity, ok := authctx.IdentityFromContext(ctx); ok && identity.Role == authdomain.RoleBuyer {
		if order.BuyerOrgID != identity.OrgID.Int64() {
			return nil, domain.ErrNotOrderOwner
		}
	}

	batches, err := s.loadBatches(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(order, batches)
	return &resp, nil
}

// Accept moves an order out of the approval queue. The row is re-read
// under a write lock so two simultaneous decisions cannot both win.
func (s *Service) Accept(ctx context.Context, id string) (*domain.Response, error) {
	return s.decide(ctx, id, domain.OrderStatusAccepted, nil)
}

func (s *Service) Reject(ctx context.Context, id string, reason string) (*domain.Response, error) {
	trimmed := strings.TrimSpace(reason)
	if trimmed == "" {
		return nil, domain.ErrMissingReason
	}
	return s.decide(ctx, id, domain.OrderStatusRejected, &trimmed)
}

func (s *Service) decide(ctx context.Context, id string, target domain.OrderStatus, reason *string) (*domain.Response, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || orderID == 0 {
		return nil, domain.ErrInvalidID
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.loadOrderForUpdate(ctx, tx, orderID.Int64())
		if err != nil {
			return err
		}
		if locked.Status != domain.OrderStatusPendingApproval {
			return domain.ErrInvalidOrderState
		}

		locked.Status = target
		locked.RejectionReason = reason
		locked.UpdatedAt = time.Now().UTC()
		if err := tx.WithContext(ctx).Exec(
			`UPDATE orders SET status = ?, rejection_reason = ?, updated_at = ? WHERE id = ?`,
			locked.Status,
			locked.RejectionReason,
			locked.UpdatedAt,
			locked.ID,
		).Error; err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := "order.accepted"
	metadata := map[string]any{}
	if target == domain.OrderStatusRejected {
		action = "order.rejected"
		metadata["reason"] = *reason
	}
	s.auditSvc.Record(ctx, action, "order", orderID.String(), metadata)

	resp := s.toResponse(order, nil)
	return &resp, nil
}

// CreateBatch carves a slice off an accepted order. The batch row, the
// stock debit and the invoice land in one transaction: a failure at any
// point rolls all three back.
func (s *Service) CreateBatch(ctx context.Context, req domain.CreateBatchRequest) (*domain.BatchResponse, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(req.OrderID))
	if err != nil || orderID == 0 {
		return nil, domain.ErrInvalidID
	}
	productID, err := snowflake.ParseString(strings.TrimSpace(req.ProductID))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}
	siteID, err := snowflake.ParseString(strings.TrimSpace(req.SiteID))
	if err != nil || siteID == 0 {
		return nil, domain.ErrInvalidID
	}
	if !req.QuantityMT.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	var actorID *int64
	if identity, ok := authctx.IdentityFromContext(ctx); ok {
		id := identity.UserID.Int64()
		actorID = &id
	}

	var (
		batch *domain.OrderBatch
		inv   *invoicedomain.Invoice
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.loadOrderForUpdate(ctx, tx, orderID.Int64())
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusAccepted {
			return domain.ErrInvalidOrderState
		}

		batched, err := s.sumBatchQuantities(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if batched.Add(req.QuantityMT).GreaterThan(order.RequestedQuantityMT) {
			return domain.ErrQuantityExceedsOrder
		}

		product, err := s.loadProduct(ctx, tx, productID.Int64())
		if err != nil {
			return err
		}
		site, err := s.loadSite(ctx, tx, siteID.Int64())
		if err != nil {
			return err
		}
		buyerState, err := s.loadBuyerState(ctx, tx, order.BuyerOrgID)
		if err != nil {
			return err
		}

		if _, err := s.ledger.Reserve(ctx, tx, product.ID, site.ID, req.QuantityMT, actorID); err != nil {
			return err
		}

		now := time.Now().UTC()
		createdBy := int64(0)
		if actorID != nil {
			createdBy = *actorID
		}
		batch = &domain.OrderBatch{
			ID:         s.genID.Generate().Int64(),
			OrderID:    order.ID,
			ProductID:  product.ID,
			SiteID:     site.ID,
			QuantityMT: req.QuantityMT,
			Status:     domain.BatchStatusInvoiced,
			DeliveryAt: req.DeliveryAt,
			CreatedBy:  createdBy,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO order_batches (id, order_id, product_id, site_id, quantity_mt, status, delivery_at, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			batch.ID,
			batch.OrderID,
			batch.ProductID,
			batch.SiteID,
			batch.QuantityMT,
			batch.Status,
			batch.DeliveryAt,
			batch.CreatedBy,
			batch.CreatedAt,
			batch.UpdatedAt,
		).Error; err != nil {
			return err
		}

		inv, err = s.issuer.IssueForBatch(ctx, tx, invoicedomain.IssueRequest{
			BatchID:     batch.ID,
			QuantityMT:  batch.QuantityMT,
			PricePMT:    product.PricePMT,
			BuyerState:  buyerState,
			SellerState: site.State,
			RatePercent: decimal.NewFromFloat(s.cfg.GSTRatePercent),
		})
		return err
	})
	if err != nil {
		if errors.Is(err, inventorydomain.ErrInsufficientInventory) {
			s.metrics.RecordReservationConflict(ctx)
		}
		return nil, err
	}

	s.auditSvc.Record(ctx, "order_batch.created", "order_batch", snowflake.ID(batch.ID).String(), map[string]any{
		"order_id":    orderID.String(),
		"product_id":  productID.String(),
		"site_id":     siteID.String(),
		"quantity_mt": batch.QuantityMT.String(),
		"invoice":     inv.Number,
	})
	s.metrics.RecordBatchCreated(ctx, snowflake.ID(batch.SiteID).String())
	s.metrics.RecordInventoryReservation(ctx)

	resp := s.toBatchResponse(batch, inv)
	return &resp, nil
}

// StartBatch gates processing on money: the batch's invoice must carry at
// least one verified payment. The guard reads persisted payments, never a
// cached flag.
func (s *Service) StartBatch(ctx context.Context, batchID string) (*domain.BatchResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(batchID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	var batch *domain.OrderBatch
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.loadBatchForUpdate(ctx, tx, id.Int64())
		if err != nil {
			return err
		}
		if locked.Status != domain.BatchStatusInvoiced {
			return domain.ErrInvalidBatchState
		}

		var verified int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COUNT(1)
			 FROM payments p
			 JOIN invoices i ON i.id = p.invoice_id
			 WHERE i.batch_id = ? AND p.verified`,
			locked.ID,
		).Scan(&verified).Error; err != nil {
			return err
		}
		if verified == 0 {
			return domain.ErrPaymentNotApproved
		}

		locked.Status = domain.BatchStatusInProgress
		locked.UpdatedAt = time.Now().UTC()
		if err := tx.WithContext(ctx).Exec(
			`UPDATE order_batches SET status = ?, updated_at = ? WHERE id = ?`,
			locked.Status,
			locked.UpdatedAt,
			locked.ID,
		).Error; err != nil {
			return err
		}
		batch = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "order_batch.started", "order_batch", id.String(), nil)

	resp := s.toBatchResponse(batch, nil)
	return &resp, nil
}

// CompleteBatch finishes a batch and, when it was the last open sibling,
// completes the whole order in the same unit of work.
func (s *Service) CompleteBatch(ctx context.Context, batchID string, leftFromSite bool) (*domain.BatchResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(batchID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	var (
		batch          *domain.OrderBatch
		orderCompleted bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.loadBatchForUpdate(ctx, tx, id.Int64())
		if err != nil {
			return err
		}
		if locked.Status != domain.BatchStatusInProgress {
			return domain.ErrInvalidBatchState
		}

		// Lock the parent before touching siblings so two concurrent
		// completions agree on who closes the order.
		order, err := s.loadOrderForUpdate(ctx, tx, locked.OrderID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		locked.Status = domain.BatchStatusCompleted
		locked.UpdatedAt = now
		if leftFromSite {
			locked.LeftFromSiteAt = &now
		}
		if err := tx.WithContext(ctx).Exec(
			`UPDATE order_batches SET status = ?, left_from_site_at = ?, updated_at = ? WHERE id = ?`,
			locked.Status,
			locked.LeftFromSiteAt,
			locked.UpdatedAt,
			locked.ID,
		).Error; err != nil {
			return err
		}

		var open int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COUNT(1) FROM order_batches WHERE order_id = ? AND status <> ?`,
			order.ID,
			domain.BatchStatusCompleted,
		).Scan(&open).Error; err != nil {
			return err
		}
		if open == 0 && order.Status == domain.OrderStatusAccepted {
			if err := tx.WithContext(ctx).Exec(
				`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
				domain.OrderStatusCompleted,
				now,
				order.ID,
			).Error; err != nil {
				return err
			}
			orderCompleted = true
		}

		batch = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(ctx, "order_batch.completed", "order_batch", id.String(), map[string]any{
		"left_from_site":  leftFromSite,
		"order_completed": orderCompleted,
	})
	if orderCompleted {
		s.auditSvc.Record(ctx, "order.completed", "order", snowflake.ID(batch.OrderID).String(), nil)
	}

	resp := s.toBatchResponse(batch, nil)
	return &resp, nil
}

type productRow struct {
	ID       int64
	PricePMT decimal.Decimal
	Active   bool
}

type siteRow struct {
	ID     int64
	State  string
	Active bool
}

func (s *Service) loadOrder(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *Service) loadOrderForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*domain.Order, error) {
	var order domain.Order
	err := tx.WithContext(ctx).Raw(
		`SELECT id, buyer_org_id, status, requested_quantity_mt, rejection_reason, created_by, created_at, updated_at
		 FROM orders
		 WHERE id = ?`+db.ForUpdate(tx),
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, domain.ErrNotFound
	}
	return &order, nil
}

func (s *Service) loadBatchForUpdate(ctx context.Context, tx *gorm.DB, id int64) (*domain.OrderBatch, error) {
	var batch domain.OrderBatch
	err := tx.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, site_id, quantity_mt, status, delivery_at, left_from_site_at, created_by, created_at, updated_at
		 FROM order_batches
		 WHERE id = ?`+db.ForUpdate(tx),
		id,
	).Scan(&batch).Error
	if err != nil {
		return nil, err
	}
	if batch.ID == 0 {
		return nil, domain.ErrBatchNotFound
	}
	return &batch, nil
}

func (s *Service) sumBatchQuantities(ctx context.Context, tx *gorm.DB, orderID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(quantity_mt), 0) FROM order_batches WHERE order_id = ?`,
		orderID,
	).Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (s *Service) loadProduct(ctx context.Context, tx *gorm.DB, id int64) (*productRow, error) {
	var p productRow
	err := tx.WithContext(ctx).Raw(
		`SELECT id, price_pmt, active FROM products WHERE id = ?`, id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, domain.ErrNotFound
	}
	if !p.Active {
		return nil, domain.ErrProductInactive
	}
	return &p, nil
}

func (s *Service) loadSite(ctx context.Context, tx *gorm.DB, id int64) (*siteRow, error) {
	var site siteRow
	err := tx.WithContext(ctx).Raw(
		`SELECT id, state, active FROM sites WHERE id = ?`, id,
	).Scan(&site).Error
	if err != nil {
		return nil, err
	}
	if site.ID == 0 {
		return nil, domain.ErrNotFound
	}
	if !site.Active {
		return nil, domain.ErrSiteInactive
	}
	return &site, nil
}

func (s *Service) loadBuyerState(ctx context.Context, tx *gorm.DB, orgID int64) (string, error) {
	var state string
	err := tx.WithContext(ctx).Raw(
		`SELECT state FROM organizations WHERE id = ?`, orgID,
	).Scan(&state).Error
	if err != nil {
		return "", err
	}
	if state == "" {
		return "", domain.ErrNotFound
	}
	return state, nil
}

func (s *Service) loadBatches(ctx context.Context, orderID int64) ([]domain.BatchResponse, error) {
	var batches []domain.OrderBatch
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, nil
	}

	batchIDs := make([]int64, 0, len(batches))
	for _, b := range batches {
		batchIDs = append(batchIDs, b.ID)
	}
	var invoices []invoicedomain.Invoice
	if err := s.db.WithContext(ctx).
		Where("batch_id IN ?", batchIDs).
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	byBatch := make(map[int64]*invoicedomain.Invoice, len(invoices))
	for i := range invoices {
		byBatch[invoices[i].BatchID] = &invoices[i]
	}

	resp := make([]domain.BatchResponse, 0, len(batches))
	for i := range batches {
		resp = append(resp, s.toBatchResponse(&batches[i], byBatch[batches[i].ID]))
	}
	return resp, nil
}

func (s *Service) toResponse(order *domain.Order, batches []domain.BatchResponse) domain.Response {
	return domain.Response{
		ID:                  snowflake.ID(order.ID).String(),
		BuyerOrgID:          snowflake.ID(order.BuyerOrgID).String(),
		Status:              order.Status,
		RequestedQuantityMT: order.RequestedQuantityMT,
		RejectionReason:     order.RejectionReason,
		CreatedBy:           snowflake.ID(order.CreatedBy).String(),
		Batches:             batches,
		CreatedAt:           order.CreatedAt,
		UpdatedAt:           order.UpdatedAt,
	}
}

func (s *Service) toBatchResponse(batch *domain.OrderBatch, inv *invoicedomain.Invoice) domain.BatchResponse {
	resp := domain.BatchResponse{
		ID:             snowflake.ID(batch.ID).String(),
		OrderID:        snowflake.ID(batch.OrderID).String(),
		ProductID:      snowflake.ID(batch.ProductID).String(),
		SiteID:         snowflake.ID(batch.SiteID).String(),
		QuantityMT:     batch.QuantityMT,
		Status:         batch.Status,
		DeliveryAt:     batch.DeliveryAt,
		LeftFromSiteAt: batch.LeftFromSiteAt,
		CreatedAt:      batch.CreatedAt,
		UpdatedAt:      batch.UpdatedAt,
	}
	if inv != nil {
		invResp := toInvoiceResponse(inv)
		resp.Invoice = &invResp
	}
	return resp
}

func toInvoiceResponse(inv *invoicedomain.Invoice) invoicedomain.Response {
	return invoicedomain.Response{
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
