package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/pelletworks/pelletport/internal/invoice/domain"
	"go.uber.org/zap"
)

func (s *Server) ListInvoices(c *gin.Context) {
	filter := invoicedomain.ListRequest{
		OrderID: c.Query("order_id"),
		Status:  c.Query("status"),
	}

	invoices, err := s.invoiceSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	invoice, err := s.invoiceSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (s *Server) DownloadInvoicePDF(c *gin.Context) {
	data, err := s.invoiceSvc.RenderData(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdfRenderer.RenderInvoice(c.Request.Context(), data)
	if err != nil {
		s.log.Error("invoice pdf render failed",
			zap.String("invoice_id", data.Invoice.ID),
			zap.Error(err),
		)
		AbortWithError(c, ErrInternal)
		return
	}

	s.auditSvc.Record(c.Request.Context(), "invoice.downloaded", "invoice", data.Invoice.ID, map[string]any{
		"number": data.Invoice.Number,
	})

	c.Header("Content-Disposition", `attachment; filename="`+data.Invoice.Number+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, doc); err != nil {
		s.log.Warn("invoice pdf write aborted", zap.Error(err))
	}
}
