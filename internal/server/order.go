package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/pelletworks/pelletport/internal/order/domain"
)

type RejectOrderRequest struct {
	Reason string `json:"reason"`
}

type CompleteBatchRequest struct {
	LeftFromSite bool `json:"left_from_site"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req orderdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) ListOrders(c *gin.Context) {
	filter := orderdomain.ListRequest{
		Status: strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		OrgID:  c.Query("org_id"),
	}

	orders, err := s.orderSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	order, err := s.orderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) AcceptOrder(c *gin.Context) {
	order, err := s.orderSvc.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) RejectOrder(c *gin.Context) {
	var req RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) CreateOrderBatch(c *gin.Context) {
	var req orderdomain.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.OrderID = c.Param("id")

	batch, err := s.orderSvc.CreateBatch(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

func (s *Server) StartOrderBatch(c *gin.Context) {
	batch, err := s.orderSvc.StartBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (s *Server) CompleteOrderBatch(c *gin.Context) {
	var req CompleteBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// The body is optional; an absent flag means the truck has not left.
		req.LeftFromSite = false
	}

	batch, err := s.orderSvc.CompleteBatch(c.Request.Context(), c.Param("id"), req.LeftFromSite)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}
