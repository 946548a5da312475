package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrUpstream       = errors.New("upstream_failure")
)

// ErrorHandlingMiddleware turns errors recorded on the context into one JSON
// error response. Handlers report errors via AbortWithError and never write
// error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Code:    validationErrorCode(err),
					Message: err.Error(),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, insurerdomain.ErrInsurerNotFound),
		errors.Is(err, insurerdomain.ErrInsurerInactive):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_failure",
			Message: "upstream failure",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, claimdomain.ErrInvalidProviderName),
		errors.Is(err, claimdomain.ErrInvalidSpecialty),
		errors.Is(err, claimdomain.ErrInvalidEncounterDate),
		errors.Is(err, claimdomain.ErrInvalidPriority),
		errors.Is(err, claimdomain.ErrNoItems),
		errors.Is(err, claimdomain.ErrInvalidItemName),
		errors.Is(err, claimdomain.ErrInvalidUnitPrice),
		errors.Is(err, claimdomain.ErrInvalidQuantity):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, claimdomain.ErrClaimNotFound),
		errors.Is(err, claimdomain.ErrItemNotFound),
		errors.Is(err, batchdomain.ErrBatchNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, claimdomain.ErrClaimNotCancellable),
		errors.Is(err, claimdomain.ErrClaimNotEditable),
		errors.Is(err, batchdomain.ErrInvalidTransition),
		errors.Is(err, batchdomain.ErrCapacityExhausted):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, claimdomain.ErrInvalidProviderName):
		return "invalid_provider_name"
	case errors.Is(err, claimdomain.ErrInvalidSpecialty):
		return "invalid_specialty"
	case errors.Is(err, claimdomain.ErrInvalidEncounterDate):
		return "invalid_encounter_date"
	case errors.Is(err, claimdomain.ErrInvalidPriority):
		return "invalid_priority_level"
	case errors.Is(err, claimdomain.ErrNoItems):
		return "items_required"
	case errors.Is(err, claimdomain.ErrInvalidItemName):
		return "invalid_item_name"
	case errors.Is(err, claimdomain.ErrInvalidUnitPrice):
		return "invalid_unit_price"
	case errors.Is(err, claimdomain.ErrInvalidQuantity):
		return "invalid_quantity"
	default:
		return "invalid_request"
	}
}
