package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListInsurers(c *gin.Context) {
	insurers, err := s.insurerSvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": insurers})
}
