package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/pelletworks/pelletport/internal/audit/domain"
	authdomain "github.com/pelletworks/pelletport/internal/auth/domain"
	"github.com/pelletworks/pelletport/internal/authctx"
	"github.com/pelletworks/pelletport/internal/config"
	inventorydomain "github.com/pelletworks/pelletport/internal/inventory/domain"
	inventoryledger "github.com/pelletworks/pelletport/internal/inventory/ledger"
	invoicedomain "github.com/pelletworks/pelletport/internal/invoice/domain"
	invoiceservice "github.com/pelletworks/pelletport/internal/invoice/service"
	"github.com/pelletworks/pelletport/internal/order/domain"
	orderservice "github.com/pelletworks/pelletport/internal/order/service"
	paymentdomain "github.com/pelletworks/pelletport/internal/payment/domain"
	paymentservice "github.com/pelletworks/pelletport/internal/payment/service"
)

type noopAuditService struct{}

func (noopAuditService) Record(ctx context.Context, action string, targetType string, targetID string, metadata map[string]any) {
}

func (noopAuditService) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	orderSvc   domain.Service
	paymentSvc paymentdomain.Service
	invoiceSvc invoicedomain.Service

	buyerOrgID snowflake.ID
	productID  snowflake.ID
	siteID     snowflake.ID

	buyerCtx   context.Context
	opsCtx     context.Context
	financeCtx context.Context
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE organizations (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			gstin TEXT,
			state TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE products (
			id BIGINT PRIMARY KEY,
			sku TEXT NOT NULL,
			name TEXT NOT NULL,
			pellet_type TEXT NOT NULL,
			grade TEXT NOT NULL,
			cv_min_kcal INTEGER NOT NULL,
			cv_max_kcal INTEGER NOT NULL,
			ash_percent NUMERIC NOT NULL,
			moisture_percent NUMERIC NOT NULL,
			price_pmt NUMERIC NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_products_sku ON products(sku)`,
		`CREATE TABLE sites (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			city TEXT NOT NULL,
			state TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE inventories (
			id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			site_id BIGINT NOT NULL,
			available_mt NUMERIC NOT NULL,
			reserved_mt NUMERIC NOT NULL,
			last_updated_by BIGINT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_inventories_product_site ON inventories(product_id, site_id)`,
		`CREATE TABLE inventory_history (
			id BIGINT PRIMARY KEY,
			product_id BIGINT NOT NULL,
			site_id BIGINT NOT NULL,
			available_mt NUMERIC NOT NULL,
			reserved_mt NUMERIC NOT NULL,
			change_mt NUMERIC NOT NULL,
			reason TEXT NOT NULL,
			recorded_by BIGINT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			buyer_org_id BIGINT NOT NULL,
			status TEXT NOT NULL,
			requested_quantity_mt NUMERIC NOT NULL,
			rejection_reason TEXT,
			created_by BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE order_batches (
			id BIGINT PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			site_id BIGINT NOT NULL,
			quantity_mt NUMERIC NOT NULL,
			status TEXT NOT NULL,
			delivery_at TIMESTAMP,
			left_from_site_at TIMESTAMP,
			created_by BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE invoices (
			id BIGINT PRIMARY KEY,
			batch_id BIGINT NOT NULL,
			number TEXT NOT NULL,
			subtotal NUMERIC NOT NULL,
			gst_type TEXT NOT NULL,
			gst_rate NUMERIC NOT NULL,
			gst_amount NUMERIC NOT NULL,
			cgst NUMERIC,
			sgst NUMERIC,
			total_amount NUMERIC NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_invoices_batch ON invoices(batch_id)`,
		`CREATE UNIQUE INDEX ux_invoices_number ON invoices(number)`,
		`CREATE TABLE payments (
			id BIGINT PRIMARY KEY,
			invoice_id BIGINT NOT NULL,
			amount NUMERIC NOT NULL,
			mode TEXT NOT NULL,
			proof_ref TEXT,
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			recorded_by BIGINT NOT NULL,
			verified_by BIGINT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newFixture(t *testing.T, buyerState, siteState string, available string) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(31)
	require.NoError(t, err)

	auditSvc := noopAuditService{}
	ledger := inventoryledger.New(inventoryledger.Params{Log: zap.NewNop(), GenID: node})
	issuer, invoiceSvc := invoiceservice.New(invoiceservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
	orderSvc := orderservice.New(orderservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Cfg:      config.Config{GSTRatePercent: 18},
		Ledger:   ledger,
		Issuer:   issuer,
		AuditSvc: auditSvc,
		Metrics:  nil,
	})
	paymentSvc := paymentservice.New(paymentservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Issuer:   issuer,
		AuditSvc: auditSvc,
		Metrics:  nil,
	})

	f := &fixture{
		db:         db,
		node:       node,
		orderSvc:   orderSvc,
		paymentSvc: paymentSvc,
		invoiceSvc: invoiceSvc,
		buyerOrgID: node.Generate(),
		productID:  node.Generate(),
		siteID:     node.Generate(),
	}

	now := time.Now().UTC()
	require.NoError(t, db.Exec(
		`INSERT INTO organizations (id, name, state, active, created_at, updated_at)
		 VALUES (?, 'Shakti Boilers', ?, TRUE, ?, ?)`,
		f.buyerOrgID.Int64(), buyerState, now, now,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO products (id, sku, name, pellet_type, grade, cv_min_kcal, cv_max_kcal, ash_percent, moisture_percent, price_pmt, active, created_at, updated_at)
		 VALUES (?, 'WP-A1-8MM', 'Wood Pellet A1 8mm', 'WOOD', 'A1', 4200, 4600, '1.2', '8.0', '8200', TRUE, ?, ?)`,
		f.productID.Int64(), now, now,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO sites (id, name, city, state, active, created_at, updated_at)
		 VALUES (?, 'Nagpur Plant', 'Nagpur', ?, TRUE, ?, ?)`,
		f.siteID.Int64(), siteState, now, now,
	).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO inventories (id, product_id, site_id, available_mt, reserved_mt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		node.Generate().Int64(), f.productID.Int64(), f.siteID.Int64(), available, now, now,
	).Error)

	f.buyerCtx = authctx.WithIdentity(context.Background(), authctx.Identity{
		UserID: node.Generate(),
		Role:   authdomain.RoleBuyer,
		OrgID:  f.buyerOrgID,
	})
	f.opsCtx = authctx.WithIdentity(context.Background(), authctx.Identity{
		UserID: node.Generate(),
		Role:   authdomain.RoleOps,
	})
	f.financeCtx = authctx.WithIdentity(context.Background(), authctx.Identity{
		UserID: node.Generate(),
		Role:   authdomain.RoleFinance,
	})
	return f
}

func (f *fixture) placeAcceptedOrder(t *testing.T, quantity int64) *domain.Response {
	t.Helper()
	order, err := f.orderSvc.Create(f.buyerCtx, domain.CreateRequest{
		RequestedQuantityMT: decimal.NewFromInt(quantity),
	})
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPendingApproval, order.Status)

	accepted, err := f.orderSvc.Accept(f.opsCtx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusAccepted, accepted.Status)
	return accepted
}

func (f *fixture) inventory(t *testing.T) (decimal.Decimal, decimal.Decimal) {
	t.Helper()
	var inv inventorydomain.Inventory
	require.NoError(t, f.db.First(&inv, "product_id = ? AND site_id = ?", f.productID.Int64(), f.siteID.Int64()).Error)
	return inv.AvailableMT, inv.ReservedMT
}

func TestHappyPathSameState(t *testing.T) {
	f := newFixture(t, "MH", "MH", "150")

	order := f.placeAcceptedOrder(t, 100)

	batch, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.Equal(t, domain.BatchStatusInvoiced, batch.Status)
	require.NotNil(t, batch.Invoice)

	available, reserved := f.inventory(t)
	require.True(t, available.Equal(decimal.NewFromInt(50)))
	require.True(t, reserved.Equal(decimal.NewFromInt(100)))

	inv := batch.Invoice
	require.True(t, inv.Subtotal.Equal(decimal.NewFromInt(820000)))
	require.Equal(t, "CGST_SGST", inv.GSTType)
	require.True(t, inv.GSTAmount.Equal(decimal.NewFromInt(147600)))
	require.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(967600)))
	require.True(t, inv.CGST.Equal(decimal.NewFromInt(73800)))
	require.True(t, inv.SGST.Equal(decimal.NewFromInt(73800)))

	// Finance records the full amount; staff payments verify on entry.
	payment, err := f.paymentSvc.Record(f.financeCtx, paymentdomain.RecordRequest{
		InvoiceID: inv.ID,
		Amount:    decimal.NewFromInt(967600),
		Mode:      paymentdomain.ModeRTGS,
	})
	require.NoError(t, err)
	require.True(t, payment.Verified)
	require.Equal(t, invoicedomain.StatusPaid, payment.InvoiceStatus)

	started, err := f.orderSvc.StartBatch(f.opsCtx, batch.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BatchStatusInProgress, started.Status)

	completed, err := f.orderSvc.CompleteBatch(f.opsCtx, batch.ID, true)
	require.NoError(t, err)
	require.Equal(t, domain.BatchStatusCompleted, completed.Status)
	require.NotNil(t, completed.LeftFromSiteAt)

	final, err := f.orderSvc.Get(f.opsCtx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, final.Status)
}

func TestCreateBatchInterStateUsesIGST(t *testing.T) {
	f := newFixture(t, "GJ", "MH", "150")

	order := f.placeAcceptedOrder(t, 100)
	batch, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	require.Equal(t, "IGST", batch.Invoice.GSTType)
	require.Nil(t, batch.Invoice.CGST)
	require.True(t, batch.Invoice.GSTAmount.Equal(decimal.NewFromInt(147600)))
}

func TestCreateBatchInsufficientInventory(t *testing.T) {
	f := newFixture(t, "MH", "MH", "10")

	order := f.placeAcceptedOrder(t, 100)
	_, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(50),
	})
	require.ErrorIs(t, err, inventorydomain.ErrInsufficientInventory)

	available, reserved := f.inventory(t)
	require.True(t, available.Equal(decimal.NewFromInt(10)))
	require.True(t, reserved.IsZero())

	var batchCount, invoiceCount int64
	require.NoError(t, f.db.Table("order_batches").Count(&batchCount).Error)
	require.NoError(t, f.db.Table("invoices").Count(&invoiceCount).Error)
	require.Zero(t, batchCount)
	require.Zero(t, invoiceCount)
}

func TestCreateBatchQuantityBound(t *testing.T) {
	f := newFixture(t, "MH", "MH", "500")

	order := f.placeAcceptedOrder(t, 100)

	_, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(60),
	})
	require.NoError(t, err)

	_, err = f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(50),
	})
	require.ErrorIs(t, err, domain.ErrQuantityExceedsOrder)

	// The failed attempt must not leak a reservation.
	available, reserved := f.inventory(t)
	require.True(t, available.Equal(decimal.NewFromInt(440)))
	require.True(t, reserved.Equal(decimal.NewFromInt(60)))
}

func TestAcceptRequiresPendingApproval(t *testing.T) {
	f := newFixture(t, "MH", "MH", "100")

	order, err := f.orderSvc.Create(f.buyerCtx, domain.CreateRequest{
		RequestedQuantityMT: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = f.orderSvc.Accept(f.opsCtx, order.ID)
	require.NoError(t, err)

	// The second decision loses: the guard re-reads persisted state.
	_, err = f.orderSvc.Accept(f.opsCtx, order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidOrderState)
	_, err = f.orderSvc.Reject(f.opsCtx, order.ID, "too late")
	require.ErrorIs(t, err, domain.ErrInvalidOrderState)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t, "MH", "MH", "100")

	order, err := f.orderSvc.Create(f.buyerCtx, domain.CreateRequest{
		RequestedQuantityMT: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = f.orderSvc.Reject(f.opsCtx, order.ID, "   ")
	require.ErrorIs(t, err, domain.ErrMissingReason)

	rejected, err := f.orderSvc.Reject(f.opsCtx, order.ID, "credit hold")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	require.Equal(t, "credit hold", *rejected.RejectionReason)
}

func TestCreateBatchRequiresAcceptedOrder(t *testing.T) {
	f := newFixture(t, "MH", "MH", "100")

	order, err := f.orderSvc.Create(f.buyerCtx, domain.CreateRequest{
		RequestedQuantityMT: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(10),
	})
	require.ErrorIs(t, err, domain.ErrInvalidOrderState)
}

func TestUnverifiedPaymentBlocksStart(t *testing.T) {
	f := newFixture(t, "MH", "MH", "150")

	order := f.placeAcceptedOrder(t, 100)
	batch, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// No payment at all.
	_, err = f.orderSvc.StartBatch(f.opsCtx, batch.ID)
	require.ErrorIs(t, err, domain.ErrPaymentNotApproved)

	// A buyer-recorded payment stays unverified and still blocks.
	payment, err := f.paymentSvc.Record(f.buyerCtx, paymentdomain.RecordRequest{
		InvoiceID: batch.Invoice.ID,
		Amount:    decimal.NewFromInt(967600),
		Mode:      paymentdomain.ModeNEFT,
	})
	require.NoError(t, err)
	require.False(t, payment.Verified)
	require.Equal(t, invoicedomain.StatusPending, payment.InvoiceStatus)

	_, err = f.orderSvc.StartBatch(f.opsCtx, batch.ID)
	require.ErrorIs(t, err, domain.ErrPaymentNotApproved)

	// Finance verifies; the gate opens.
	verified, err := f.paymentSvc.Verify(f.financeCtx, payment.ID, true)
	require.NoError(t, err)
	require.True(t, verified.Verified)
	require.Equal(t, invoicedomain.StatusPaid, verified.InvoiceStatus)

	started, err := f.orderSvc.StartBatch(f.opsCtx, batch.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BatchStatusInProgress, started.Status)
}

func TestVerifyIsIdempotent(t *testing.T) {
	f := newFixture(t, "MH", "MH", "150")

	order := f.placeAcceptedOrder(t, 100)
	batch, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	payment, err := f.paymentSvc.Record(f.buyerCtx, paymentdomain.RecordRequest{
		InvoiceID: batch.Invoice.ID,
		Amount:    decimal.NewFromInt(967600),
		Mode:      paymentdomain.ModeUPI,
	})
	require.NoError(t, err)

	first, err := f.paymentSvc.Verify(f.financeCtx, payment.ID, true)
	require.NoError(t, err)
	require.True(t, first.Verified)

	second, err := f.paymentSvc.Verify(f.financeCtx, payment.ID, true)
	require.NoError(t, err)
	require.True(t, second.Verified)
	require.Equal(t, invoicedomain.StatusPaid, second.InvoiceStatus)
}

func TestCompletionCascade(t *testing.T) {
	f := newFixture(t, "MH", "MH", "500")

	order := f.placeAcceptedOrder(t, 100)

	var batchIDs []string
	for _, qty := range []int64{40, 60} {
		batch, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
			OrderID:    order.ID,
			ProductID:  f.productID.String(),
			SiteID:     f.siteID.String(),
			QuantityMT: decimal.NewFromInt(qty),
		})
		require.NoError(t, err)

		_, err = f.paymentSvc.Record(f.financeCtx, paymentdomain.RecordRequest{
			InvoiceID: batch.Invoice.ID,
			Amount:    batch.Invoice.TotalAmount,
			Mode:      paymentdomain.ModeRTGS,
		})
		require.NoError(t, err)

		_, err = f.orderSvc.StartBatch(f.opsCtx, batch.ID)
		require.NoError(t, err)
		batchIDs = append(batchIDs, batch.ID)
	}

	_, err := f.orderSvc.CompleteBatch(f.opsCtx, batchIDs[0], false)
	require.NoError(t, err)

	mid, err := f.orderSvc.Get(f.opsCtx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusAccepted, mid.Status)

	_, err = f.orderSvc.CompleteBatch(f.opsCtx, batchIDs[1], true)
	require.NoError(t, err)

	final, err := f.orderSvc.Get(f.opsCtx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCompleted, final.Status)
}

func TestCompleteBatchRequiresInProgress(t *testing.T) {
	f := newFixture(t, "MH", "MH", "150")

	order := f.placeAcceptedOrder(t, 100)
	batch, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = f.orderSvc.CompleteBatch(f.opsCtx, batch.ID, true)
	require.ErrorIs(t, err, domain.ErrInvalidBatchState)
}

func TestBuyerSeesOnlyOwnOrders(t *testing.T) {
	f := newFixture(t, "MH", "MH", "150")

	order := f.placeAcceptedOrder(t, 10)

	otherBuyer := authctx.WithIdentity(context.Background(), authctx.Identity{
		UserID: f.node.Generate(),
		Role:   authdomain.RoleBuyer,
		OrgID:  f.node.Generate(),
	})
	_, err := f.orderSvc.Get(otherBuyer, order.ID)
	require.ErrorIs(t, err, domain.ErrNotOrderOwner)

	orders, err := f.orderSvc.List(otherBuyer, domain.ListRequest{})
	require.NoError(t, err)
	require.Empty(t, orders)

	own, err := f.orderSvc.List(f.buyerCtx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, own, 1)
}

func TestBuyerCannotPayForeignInvoice(t *testing.T) {
	f := newFixture(t, "MH", "MH", "150")

	order := f.placeAcceptedOrder(t, 100)
	batch, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	otherBuyer := authctx.WithIdentity(context.Background(), authctx.Identity{
		UserID: f.node.Generate(),
		Role:   authdomain.RoleBuyer,
		OrgID:  f.node.Generate(),
	})
	_, err = f.paymentSvc.Record(otherBuyer, paymentdomain.RecordRequest{
		InvoiceID: batch.Invoice.ID,
		Amount:    decimal.NewFromInt(100),
		Mode:      paymentdomain.ModeNEFT,
	})
	require.ErrorIs(t, err, paymentdomain.ErrNotInvoiceOwner)
}

func TestBuyerCannotReadForeignInvoice(t *testing.T) {
	f := newFixture(t, "MH", "MH", "150")

	order := f.placeAcceptedOrder(t, 100)
	batch, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	otherBuyer := authctx.WithIdentity(context.Background(), authctx.Identity{
		UserID: f.node.Generate(),
		Role:   authdomain.RoleBuyer,
		OrgID:  f.node.Generate(),
	})

	_, err = f.invoiceSvc.Get(otherBuyer, batch.Invoice.ID)
	require.ErrorIs(t, err, invoicedomain.ErrNotInvoiceOwner)

	_, err = f.invoiceSvc.RenderData(otherBuyer, batch.Invoice.ID)
	require.ErrorIs(t, err, invoicedomain.ErrNotInvoiceOwner)

	foreign, err := f.invoiceSvc.List(otherBuyer, invoicedomain.ListRequest{})
	require.NoError(t, err)
	require.Empty(t, foreign)

	own, err := f.invoiceSvc.List(f.buyerCtx, invoicedomain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, own, 1)

	got, err := f.invoiceSvc.Get(f.buyerCtx, batch.Invoice.ID)
	require.NoError(t, err)
	require.Equal(t, batch.Invoice.Number, got.Number)
}

func TestInvoiceRenderData(t *testing.T) {
	f := newFixture(t, "MH", "MH", "150")

	order := f.placeAcceptedOrder(t, 100)
	batch, err := f.orderSvc.CreateBatch(f.opsCtx, domain.CreateBatchRequest{
		OrderID:    order.ID,
		ProductID:  f.productID.String(),
		SiteID:     f.siteID.String(),
		QuantityMT: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	data, err := f.invoiceSvc.RenderData(f.financeCtx, batch.Invoice.ID)
	require.NoError(t, err)
	require.Equal(t, "Shakti Boilers", data.BuyerName)
	require.Equal(t, "Nagpur Plant", data.SiteName)
	require.Equal(t, "WP-A1-8MM", data.ProductSKU)
	require.True(t, data.QuantityMT.Equal(decimal.NewFromInt(100)))
	require.True(t, data.PricePMT.Equal(decimal.NewFromInt(8200)))
}
