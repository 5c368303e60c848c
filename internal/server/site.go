package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	sitedomain "github.com/pelletworks/pelletport/internal/site/domain"
)

func (s *Server) CreateSite(c *gin.Context) {
	var req sitedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	site, err := s.siteSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, site)
}

func (s *Server) ListSites(c *gin.Context) {
	filter := sitedomain.ListRequest{
		State:  c.Query("state"),
		Active: parseBoolQuery(c, "active"),
	}

	sites, err := s.siteSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

func (s *Server) GetSiteByID(c *gin.Context) {
	site, err := s.siteSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

func (s *Server) UpdateSite(c *gin.Context) {
	var req sitedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	site, err := s.siteSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}
