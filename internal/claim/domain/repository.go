package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListClaimFilter struct {
	ProviderName  string
	InsurerCode   string
	Status        ClaimStatus
	Specialty     string
	PriorityLevel *int
	DateFrom      *time.Time
	DateTo        *time.Time
	SortBy        string
	SortOrder     string
}

type Repository interface {
	InsertClaim(ctx context.Context, db *gorm.DB, claim *Claim) error
	InsertItems(ctx context.Context, db *gorm.DB, items []ClaimItem) error

	// FindByID loads the claim with its items.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Claim, error)
	FindItem(ctx context.Context, db *gorm.DB, claimID, itemID snowflake.ID) (*ClaimItem, error)

	UpdateClaim(ctx context.Context, db *gorm.DB, id snowflake.ID, updates map[string]any) error
	UpdateItem(ctx context.Context, db *gorm.DB, item *ClaimItem) error
	DeleteItem(ctx context.Context, db *gorm.DB, itemID snowflake.ID) error

	List(ctx context.Context, db *gorm.DB, filter ListClaimFilter, page pagination.Pagination) ([]*Claim, int64, error)
	CountByStatus(ctx context.Context, db *gorm.DB, status ClaimStatus) (int64, error)
	Count(ctx context.Context, db *gorm.DB) (int64, error)
}
