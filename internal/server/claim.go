package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
)

type claimItemRequest struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type submitClaimRequest struct {
	ProviderName   string             `json:"provider_name"`
	InsurerCode    string             `json:"insurer_code"`
	EncounterDate  string             `json:"encounter_date"`
	SubmissionDate string             `json:"submission_date"`
	Specialty      string             `json:"specialty"`
	PriorityLevel  *int               `json:"priority_level"`
	Items          []claimItemRequest `json:"items"`
	AutoBatch      *bool              `json:"auto_batch"`
}

func (s *Server) SubmitClaim(c *gin.Context) {
	var req submitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	encounterDate, err := parseRequiredTime(req.EncounterDate)
	if err != nil {
		AbortWithError(c, newValidationError("encounter_date", "invalid_encounter_date", "invalid encounter_date"))
		return
	}
	submissionDate, err := parseOptionalTime(req.SubmissionDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("submission_date", "invalid_submission_date", "invalid submission_date"))
		return
	}

	items := make([]claimdomain.ClaimItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, claimdomain.ClaimItemInput{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	autoBatch := true
	if req.AutoBatch != nil {
		autoBatch = *req.AutoBatch
	}

	claim, err := s.claimSvc.Submit(c.Request.Context(), claimdomain.SubmitClaimRequest{
		ProviderName:   strings.TrimSpace(req.ProviderName),
		InsurerCode:    strings.TrimSpace(req.InsurerCode),
		EncounterDate:  encounterDate,
		SubmissionDate: submissionDate,
		Specialty:      strings.TrimSpace(req.Specialty),
		PriorityLevel:  req.PriorityLevel,
		Items:          items,
		AutoBatch:      autoBatch,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": claim})
}

func (s *Server) ListClaims(c *gin.Context) {
	var query struct {
		ProviderName  string `form:"provider_name"`
		InsurerCode   string `form:"insurer_code"`
		Status        string `form:"status"`
		Specialty     string `form:"specialty"`
		PriorityLevel string `form:"priority_level"`
		DateFrom      string `form:"date_from"`
		DateTo        string `form:"date_to"`
		SortBy        string `form:"sort_by"`
		SortOrder     string `form:"sort_order"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	priority, err := parseOptionalInt(query.PriorityLevel)
	if err != nil {
		AbortWithError(c, newValidationError("priority_level", "invalid_priority_level", "invalid priority_level"))
		return
	}
	dateFrom, err := parseOptionalTime(query.DateFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("date_from", "invalid_date_from", "invalid date_from"))
		return
	}
	dateTo, err := parseOptionalTime(query.DateTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("date_to", "invalid_date_to", "invalid date_to"))
		return
	}

	resp, err := s.claimSvc.List(c.Request.Context(), claimdomain.ListClaimRequest{
		ProviderName:  strings.TrimSpace(query.ProviderName),
		InsurerCode:   strings.TrimSpace(query.InsurerCode),
		Status:        strings.TrimSpace(query.Status),
		Specialty:     strings.TrimSpace(query.Specialty),
		PriorityLevel: priority,
		DateFrom:      dateFrom,
		DateTo:        dateTo,
		SortBy:        strings.TrimSpace(query.SortBy),
		SortOrder:     strings.TrimSpace(query.SortOrder),
		Page:          parsePagination(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetClaimByID(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	claim, err := s.claimSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": claim})
}

func (s *Server) GetClaimCostBreakdown(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	scenarios, err := s.claimSvc.CostBreakdown(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"claim_id":       id.String(),
		"cost_breakdown": scenarios,
	})
}

func (s *Server) CancelClaim(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	claim, err := s.claimSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": claim})
}

func (s *Server) AddClaimItem(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req claimItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	claim, err := s.claimSvc.AddItem(c.Request.Context(), id, claimdomain.ClaimItemInput{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": claim})
}

func (s *Server) UpdateClaimItem(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	itemID, err := parseSnowflakeParam(c, "itemId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req claimItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	claim, err := s.claimSvc.UpdateItem(c.Request.Context(), id, itemID, claimdomain.ClaimItemInput{
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": claim})
}

func (s *Server) RemoveClaimItem(c *gin.Context) {
	id, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	itemID, err := parseSnowflakeParam(c, "itemId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	claim, err := s.claimSvc.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": claim})
}
