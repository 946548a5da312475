package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetAnalytics(c *gin.Context) {
	overview, err := s.analyticsSvc.Overview(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": overview})
}

func (s *Server) GetCostAnalysis(c *gin.Context) {
	analysis, err := s.analyticsSvc.CostAnalysis(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": analysis})
}
