package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const reportSheet = "Sheet1"

type paymentReportRow struct {
	PaymentID     int64     `gorm:"column:payment_id"`
	InvoiceNumber string    `gorm:"column:invoice_number"`
	OrderID       int64     `gorm:"column:order_id"`
	BuyerName     string    `gorm:"column:buyer_name"`
	Amount        string    `gorm:"column:amount"`
	Mode          string    `gorm:"column:mode"`
	Verified      bool      `gorm:"column:verified"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	VerifiedBy    *int64    `gorm:"column:verified_by"`
}

type orderReportRow struct {
	OrderID       int64     `gorm:"column:order_id"`
	BuyerName     string    `gorm:"column:buyer_name"`
	Status        string    `gorm:"column:status"`
	RequestedMT   string    `gorm:"column:requested_quantity_mt"`
	BatchCount    int64     `gorm:"column:batch_count"`
	InvoicedTotal *string   `gorm:"column:invoiced_total"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ExportPaymentsReport streams the full payment register as a spreadsheet.
func (s *Server) ExportPaymentsReport(c *gin.Context) {
	ctx := c.Request.Context()

	var rows []paymentReportRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT p.id AS payment_id,
		       i.number AS invoice_number,
		       ob.order_id AS order_id,
		       org.name AS buyer_name,
		       p.amount AS amount,
		       p.mode AS mode,
		       p.verified AS verified,
		       p.created_at AS created_at,
		       p.verified_by AS verified_by
		FROM payments p
		JOIN invoices i ON i.id = p.invoice_id
		JOIN order_batches ob ON ob.id = i.batch_id
		JOIN orders o ON o.id = ob.order_id
		JOIN organizations org ON org.id = o.buyer_org_id
		ORDER BY p.created_at DESC
	`).Scan(&rows).Error
	if err != nil {
		AbortWithError(c, err)
		return
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn("report workbook close failed", zap.Error(err))
		}
	}()

	headers := []any{"Payment ID", "Invoice", "Order ID", "Buyer", "Amount", "Mode", "Verified", "Recorded At", "Verified By"}
	if err := f.SetSheetRow(reportSheet, "A1", &headers); err != nil {
		AbortWithError(c, err)
		return
	}
	for idx, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, idx+2)
		verifiedBy := ""
		if row.VerifiedBy != nil {
			verifiedBy = formatID(*row.VerifiedBy)
		}
		values := []any{
			formatID(row.PaymentID),
			row.InvoiceNumber,
			formatID(row.OrderID),
			row.BuyerName,
			row.Amount,
			row.Mode,
			row.Verified,
			row.CreatedAt.UTC().Format(time.RFC3339),
			verifiedBy,
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	s.auditSvc.Record(ctx, "report.exported", "report", "payments", map[string]any{
		"rows": len(rows),
	})

	s.writeWorkbook(c, f, "payments")
}

// ExportOrdersReport streams an order summary with batch and invoice totals.
func (s *Server) ExportOrdersReport(c *gin.Context) {
	ctx := c.Request.Context()

	var rows []orderReportRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT o.id AS order_id,
		       org.name AS buyer_name,
		       o.status AS status,
		       o.requested_quantity_mt AS requested_quantity_mt,
		       COUNT(ob.id) AS batch_count,
		       SUM(i.total_amount) AS invoiced_total,
		       o.created_at AS created_at
		FROM orders o
		JOIN organizations org ON org.id = o.buyer_org_id
		LEFT JOIN order_batches ob ON ob.order_id = o.id
		LEFT JOIN invoices i ON i.batch_id = ob.id
		GROUP BY o.id, org.name, o.status, o.requested_quantity_mt, o.created_at
		ORDER BY o.created_at DESC
	`).Scan(&rows).Error
	if err != nil {
		AbortWithError(c, err)
		return
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn("report workbook close failed", zap.Error(err))
		}
	}()

	headers := []any{"Order ID", "Buyer", "Status", "Requested MT", "Batches", "Invoiced Total", "Created At"}
	if err := f.SetSheetRow(reportSheet, "A1", &headers); err != nil {
		AbortWithError(c, err)
		return
	}
	for idx, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, idx+2)
		invoicedTotal := ""
		if row.InvoicedTotal != nil {
			invoicedTotal = *row.InvoicedTotal
		}
		values := []any{
			formatID(row.OrderID),
			row.BuyerName,
			row.Status,
			row.RequestedMT,
			row.BatchCount,
			invoicedTotal,
			row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(reportSheet, cell, &values); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	s.auditSvc.Record(ctx, "report.exported", "report", "orders", map[string]any{
		"rows": len(rows),
	})

	s.writeWorkbook(c, f, "orders")
}

func (s *Server) writeWorkbook(c *gin.Context, f *excelize.File, name string) {
	filename := name + "-" + time.Now().UTC().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		s.log.Warn("report write aborted", zap.Error(err))
	}
}
