package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListBatchFilter struct {
	Status       BatchStatus
	InsurerCode  string
	ProviderName string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, batch *Batch) error
	Update(ctx context.Context, db *gorm.DB, batch *Batch) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Batch, error)

	// FindOpenForUpdate returns the pending batch for (insurerCode, date) with
	// capacity left, locking the row for the duration of the transaction. When
	// several match it prefers the fuller batch.
	FindOpenForUpdate(ctx context.Context, db *gorm.DB, insurerCode string, date time.Time, maxBatchSize int) (*Batch, error)

	// ExistsForDate reports whether any non-failed batch occupies the
	// (insurerCode, date) key.
	ExistsForDate(ctx context.Context, db *gorm.DB, insurerCode string, date time.Time) (bool, error)

	// UpdateStatusGuarded transitions id from one status to another, applying
	// the extra column updates atomically. Returns false when the row was not
	// in the expected status (a concurrent transition won).
	UpdateStatusGuarded(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to BatchStatus, updates map[string]any) (bool, error)

	// ListClaims returns the batched claims currently attached to the batch,
	// the authoritative set every aggregate recomputation folds over.
	ListClaims(ctx context.Context, db *gorm.DB, batchID snowflake.ID) ([]*claimdomain.Claim, error)

	// ListPendingWithClaims returns pending batches holding at least one claim,
	// the candidate set for the processing sweep.
	ListPendingWithClaims(ctx context.Context, db *gorm.DB) ([]*Batch, error)

	List(ctx context.Context, db *gorm.DB, filter ListBatchFilter, page pagination.Pagination) ([]*Batch, int64, error)
}
