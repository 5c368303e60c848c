package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	inventorydomain "github.com/pelletworks/pelletport/internal/inventory/domain"
)

func (s *Server) SetInventory(c *gin.Context) {
	var req inventorydomain.SetAvailableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	inv, err := s.inventorySvc.SetAvailable(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) ListInventory(c *gin.Context) {
	filter := inventorydomain.ListRequest{
		ProductID: c.Query("product_id"),
		SiteID:    c.Query("site_id"),
	}

	items, err := s.inventorySvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inventory": items})
}

func (s *Server) ListInventoryHistory(c *gin.Context) {
	filter := inventorydomain.HistoryRequest{
		ProductID: c.Query("product_id"),
		SiteID:    c.Query("site_id"),
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}

	entries, err := s.inventorySvc.History(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
