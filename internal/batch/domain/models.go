// Package domain contains persistence models for claim batches.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"gorm.io/datatypes"
)

// BatchStatus represents batch lifecycle states.
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "pending"
	BatchStatusProcessing BatchStatus = "processing"
	BatchStatusCompleted  BatchStatus = "completed"
	BatchStatusFailed     BatchStatus = "failed"
)

// Terminal reports whether no further transition may leave the status.
func (s BatchStatus) Terminal() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// ProviderStats is one provider's share of a batch.
type ProviderStats struct {
	ClaimsCount int       `json:"claims_count"`
	TotalAmount float64   `json:"total_amount"`
	FirstSeen   time.Time `json:"first_seen"`
	LastUpdated time.Time `json:"last_updated"`
}

// Batch is a dated collection of claims for one insurer, billed and delivered
// together. The derived columns (totals, processing cost, provider breakdown)
// are always consistent with the current set of batched claims.
type Batch struct {
	ID                snowflake.ID                                 `gorm:"primaryKey" json:"id"`
	InsurerCode       string                                       `gorm:"type:text;not null;index:ix_batches_insurer_date,priority:1" json:"insurer_code"`
	BatchDate         time.Time                                    `gorm:"not null;index:ix_batches_insurer_date,priority:2" json:"batch_date"`
	TotalClaims       int                                          `gorm:"not null;default:0" json:"total_claims"`
	TotalAmount       float64                                      `gorm:"not null;default:0" json:"total_amount"`
	ProcessingCost    float64                                      `gorm:"not null;default:0" json:"processing_cost"`
	ProviderBreakdown datatypes.JSONType[map[string]ProviderStats] `gorm:"type:jsonb" json:"provider_breakdown"`
	ProviderCount     int                                          `gorm:"not null;default:0" json:"provider_count"`
	Status            BatchStatus                                  `gorm:"type:text;not null;default:'pending';index" json:"status"`
	SentAt            *time.Time                                   `json:"sent_at,omitempty"`
	CompletedAt       *time.Time                                   `json:"completed_at,omitempty"`
	CreatedAt         time.Time                                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time                                    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Batch) TableName() string { return "batches" }

// CanAcceptMoreClaims reports whether the allocator may add another claim.
func (b *Batch) CanAcceptMoreClaims(ins *insurerdomain.Insurer) bool {
	return b.Status == BatchStatusPending &&
		ins.IsActive &&
		b.TotalClaims < ins.MaxBatchSize
}

// HasMinimumClaims reports whether the batch meets the insurer's floor for
// delivery.
func (b *Batch) HasMinimumClaims(ins *insurerdomain.Insurer) bool {
	return b.TotalClaims >= ins.MinBatchSize
}

// OptimalityScore blends fill ratio and cost efficiency. Reporting only; the
// allocator never reads it.
func (b *Batch) OptimalityScore(ins *insurerdomain.Insurer) float64 {
	fillRatio := 0.0
	if ins.MaxBatchSize > 0 {
		fillRatio = float64(b.TotalClaims) / float64(ins.MaxBatchSize)
	}
	costEfficiency := 0.0
	if b.TotalAmount > 0 && b.ProcessingCost > 0 {
		costEfficiency = b.TotalAmount / b.ProcessingCost
	}
	return fillRatio*0.6 + costEfficiency*0.4
}

// FillPercentage is the batch's fill ratio against max_batch_size, in percent.
func (b *Batch) FillPercentage(ins *insurerdomain.Insurer) float64 {
	if ins.MaxBatchSize == 0 {
		return 0
	}
	return float64(b.TotalClaims) / float64(ins.MaxBatchSize) * 100
}

// Providers returns the provider names present in the breakdown.
func (b *Batch) Providers() []string {
	breakdown := b.ProviderBreakdown.Data()
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	return names
}
