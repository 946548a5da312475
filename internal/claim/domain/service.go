package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/costmodel"
	"github.com/healthlane/claimflow/pkg/db/pagination"
)

var (
	ErrClaimNotFound        = errors.New("claim not found")
	ErrItemNotFound         = errors.New("claim item not found")
	ErrInvalidProviderName  = errors.New("provider_name is required")
	ErrInvalidSpecialty     = errors.New("specialty is required")
	ErrInvalidEncounterDate = errors.New("encounter_date is required")
	ErrInvalidPriority      = errors.New("priority_level must be between 1 and 5")
	ErrNoItems              = errors.New("at least one item is required")
	ErrInvalidItemName      = errors.New("item name is required")
	ErrInvalidUnitPrice     = errors.New("item unit_price must be >= 0")
	ErrInvalidQuantity      = errors.New("item quantity must be >= 1")
	ErrClaimNotCancellable  = errors.New("claim can no longer be cancelled")
	ErrClaimNotEditable     = errors.New("claim items can no longer be modified")
)

type ClaimItemInput struct {
	Name      string
	UnitPrice float64
	Quantity  int
}

type SubmitClaimRequest struct {
	ProviderName   string
	InsurerCode    string
	EncounterDate  time.Time
	SubmissionDate *time.Time
	Specialty      string
	PriorityLevel  *int
	Items          []ClaimItemInput

	// AutoBatch makes allocation explicit: the caller decides whether the
	// claim is batched on submission.
	AutoBatch bool
}

type ListClaimRequest struct {
	ProviderName  string
	InsurerCode   string
	Status        string
	Specialty     string
	PriorityLevel *int
	DateFrom      *time.Time
	DateTo        *time.Time
	SortBy        string
	SortOrder     string
	Page          pagination.Pagination
}

type ListClaimResponse struct {
	Claims   []*Claim            `json:"data"`
	PageInfo pagination.PageInfo `json:"pagination"`
}

// CostScenarios evaluates the breakdown at reference dates for display.
type CostScenarios struct {
	CurrentDate  costmodel.Breakdown  `json:"current_date"`
	FirstOfMonth costmodel.Breakdown  `json:"first_of_month"`
	EndOfMonth   costmodel.Breakdown  `json:"end_of_month"`
	BatchDate    *costmodel.Breakdown `json:"batch_date,omitempty"`
}

// Service orchestrates the claim lifecycle: submission, batching, item
// mutation and cancellation.
type Service interface {
	Submit(ctx context.Context, req SubmitClaimRequest) (*Claim, error)
	Get(ctx context.Context, id snowflake.ID) (*Claim, error)
	List(ctx context.Context, req ListClaimRequest) (ListClaimResponse, error)
	Cancel(ctx context.Context, id snowflake.ID) (*Claim, error)
	CostBreakdown(ctx context.Context, id snowflake.ID) (*CostScenarios, error)

	AddItem(ctx context.Context, claimID snowflake.ID, input ClaimItemInput) (*Claim, error)
	UpdateItem(ctx context.Context, claimID, itemID snowflake.ID, input ClaimItemInput) (*Claim, error)
	RemoveItem(ctx context.Context, claimID, itemID snowflake.ID) (*Claim, error)
}
