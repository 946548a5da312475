package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"github.com/healthlane/claimflow/pkg/db/pagination"
	"gorm.io/gorm"
)

var (
	ErrBatchNotFound = errors.New("batch not found")
	// ErrAllocationConflict marks a create race on the (insurer, date) key. It
	// is resolved internally by retrying the find step and never surfaces.
	ErrAllocationConflict = errors.New("batch allocation conflict")
	// ErrCapacityExhausted means the business-day lookahead found no open date
	// and the original date is already taken.
	ErrCapacityExhausted = errors.New("batch capacity exhausted")
	ErrInvalidTransition = errors.New("invalid batch status transition")
)

// BatchSummary is the read model served to collaborators.
type BatchSummary struct {
	Batch           *Batch                   `json:"batch"`
	Insurer         *insurerdomain.Insurer   `json:"insurer"`
	OptimalityScore float64                  `json:"optimality_score"`
	FillPercentage  float64                  `json:"fill_percentage"`
	CanProcess      bool                     `json:"can_process"`
	Providers       []string                 `json:"providers"`
	ProviderStats   map[string]ProviderStats `json:"provider_breakdown"`
}

type ListBatchRequest struct {
	Status       string
	InsurerCode  string
	ProviderName string
	Page         pagination.Pagination
}

type ListBatchResponse struct {
	Batches  []*BatchSummary     `json:"data"`
	PageInfo pagination.PageInfo `json:"pagination"`
}

// Service owns batch allocation, aggregate consistency and status transitions.
//
// The *InTx methods participate in a caller-owned transaction so claim
// creation and batch mutation commit as one atomic unit.
type Service interface {
	// FindOrCreateBatchInTx finds the open batch for (insurer, targetDate) or
	// creates one, rolling the date forward over business days while earlier
	// dates are full.
	FindOrCreateBatchInTx(ctx context.Context, tx *gorm.DB, ins *insurerdomain.Insurer, targetDate time.Time) (*Batch, error)

	// AddClaimInTx assigns the claim to the batch and recomputes every derived
	// column from the resulting claim set.
	AddClaimInTx(ctx context.Context, tx *gorm.DB, ins *insurerdomain.Insurer, batch *Batch, claim *claimdomain.Claim) error

	// RemoveClaimInTx detaches a cancelled claim and recomputes the aggregate;
	// an emptied batch is deleted.
	RemoveClaimInTx(ctx context.Context, tx *gorm.DB, claim *claimdomain.Claim) error

	// RecalculateInTx re-derives the aggregate after a claim's total changed.
	RecalculateInTx(ctx context.Context, tx *gorm.DB, batchID snowflake.ID) error

	Get(ctx context.Context, id snowflake.ID) (*BatchSummary, []*claimdomain.Claim, error)
	List(ctx context.Context, req ListBatchRequest) (ListBatchResponse, error)

	// ProcessReadyBatches sweeps pending batches that meet the readiness rule
	// (minimum claims, active insurer), marks them processing and hands them to
	// the notifier. Returns how many were processed.
	ProcessReadyBatches(ctx context.Context) (int, error)

	// CompleteBatch confirms delivery: processing -> completed, cascading the
	// batched claims to completed.
	CompleteBatch(ctx context.Context, id snowflake.ID) (*Batch, error)
}
