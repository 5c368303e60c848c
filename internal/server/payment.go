package server

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	paymentdomain "github.com/pelletworks/pelletport/internal/payment/domain"
)

type VerifyPaymentRequest struct {
	Approve *bool `json:"approve"`
}

// maxProofSize bounds payment proof uploads at 10 MiB.
const maxProofSize = 10 << 20

func (s *Server) RecordPayment(c *gin.Context) {
	var req paymentdomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.InvoiceID = c.Param("id")

	payment, err := s.paymentSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (s *Server) ListPayments(c *gin.Context) {
	filter := paymentdomain.ListRequest{
		InvoiceID: c.Query("invoice_id"),
	}
	if raw, ok := c.GetQuery("verified"); ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.Verified = &v
		}
	}

	payments, err := s.paymentSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (s *Server) GetPaymentByID(c *gin.Context) {
	payment, err := s.paymentSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (s *Server) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Approve == nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payment, err := s.paymentSvc.Verify(c.Request.Context(), c.Param("id"), *req.Approve)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

func (s *Server) UploadPaymentProof(c *gin.Context) {
	paymentID := c.Param("id")

	file, err := c.FormFile("proof")
	if err != nil {
		AbortWithError(c, newValidationError("proof", "missing_proof", "proof file is required"))
		return
	}
	if file.Size > maxProofSize {
		AbortWithError(c, newValidationError("proof", "proof_too_large", "proof file exceeds the size limit"))
		return
	}

	src, err := file.Open()
	if err != nil {
		AbortWithError(c, ErrInternal)
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	key := "proofs/" + paymentID + "/" + uuid.NewString() + filepath.Ext(file.Filename)

	ref, err := s.proofStore.Save(c.Request.Context(), key, contentType, src)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payment, err := s.paymentSvc.AttachProof(c.Request.Context(), paymentID, ref)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}
