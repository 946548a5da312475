// Package domain contains persistence models for claims and their line items.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/costmodel"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
)

// ClaimStatus represents claim lifecycle states.
type ClaimStatus string

const (
	ClaimStatusPending   ClaimStatus = "pending"
	ClaimStatusBatched   ClaimStatus = "batched"
	ClaimStatusCompleted ClaimStatus = "completed"
	ClaimStatusCancelled ClaimStatus = "cancelled"
)

// Claim is a billing claim submitted by a provider against one insurer.
// TotalAmount is always derived from the item subtotals.
type Claim struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	ProviderName   string        `gorm:"type:text;not null;index" json:"provider_name"`
	InsurerCode    string        `gorm:"type:text;not null;index" json:"insurer_code"`
	EncounterDate  time.Time     `gorm:"not null" json:"encounter_date"`
	SubmissionDate time.Time     `gorm:"not null" json:"submission_date"`
	Specialty      string        `gorm:"type:text;not null" json:"specialty"`
	PriorityLevel  int           `gorm:"not null;default:3" json:"priority_level"`
	TotalAmount    float64       `gorm:"not null;default:0" json:"total_amount"`
	Status         ClaimStatus   `gorm:"type:text;not null;default:'pending';index" json:"status"`
	BatchID        *snowflake.ID `gorm:"index" json:"batch_id"`
	BatchedAt      *time.Time    `json:"batched_at,omitempty"`
	ProcessedAt    *time.Time    `json:"processed_at,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []ClaimItem `gorm:"foreignKey:ClaimID" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Claim) TableName() string { return "claims" }

// ClaimItem is a priced line on a claim. Subtotal is recomputed on every save.
type ClaimItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ClaimID   snowflake.ID `gorm:"not null;index" json:"claim_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	UnitPrice float64      `gorm:"not null" json:"unit_price"`
	Quantity  int          `gorm:"not null" json:"quantity"`
	Subtotal  float64      `gorm:"not null" json:"subtotal"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ClaimItem) TableName() string { return "claim_items" }

// BatchDate resolves the date that drives allocation for this claim, per the
// insurer's preference.
func (c *Claim) BatchDate(pref insurerdomain.DatePreference) time.Time {
	if pref == insurerdomain.DatePreferenceEncounter {
		return c.EncounterDate
	}
	return c.SubmissionDate
}

// CanBeBatched reports whether the claim is eligible for allocation.
func (c *Claim) CanBeBatched() bool {
	return c.Status == ClaimStatusPending && c.BatchID == nil
}

// CostFactors adapts the claim for the cost model.
func (c *Claim) CostFactors() costmodel.ClaimFactors {
	return costmodel.ClaimFactors{
		Specialty:     c.Specialty,
		PriorityLevel: c.PriorityLevel,
		TotalAmount:   c.TotalAmount,
	}
}
