package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
)

func (s *Server) ListBatches(c *gin.Context) {
	var query struct {
		Status       string `form:"status"`
		InsurerCode  string `form:"insurer_code"`
		ProviderName string `form:"provider_name"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.batchSvc.List(c.Request.Context(), batchdomain.ListBatchRequest{
		Status:       strings.TrimSpace(query.Status),
		InsurerCode:  strings.TrimSpace(query.InsurerCode),
		ProviderName: strings.TrimSpace(query.ProviderName),
		Page:         parsePagination(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetBatchByID(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	summary, claims, err := s.batchSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   summary,
		"claims": claims,
	})
}

func (s *Server) ProcessBatches(c *gin.Context) {
	processed, err := s.batchSvc.ProcessReadyBatches(c.Request.Context())
	if err != nil {
		AbortWithError(c, fmt.Errorf("%w: %s", ErrUpstream, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"processed": processed})
}

func (s *Server) CompleteBatch(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	batch, err := s.batchSvc.CompleteBatch(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": batch})
}
