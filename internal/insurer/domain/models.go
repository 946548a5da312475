// Package domain contains persistence models for the insurer registry.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DatePreference selects which claim date drives batch allocation.
type DatePreference string

const (
	DatePreferenceEncounter  DatePreference = "encounter_date"
	DatePreferenceSubmission DatePreference = "submission_date"
)

// Insurer represents a payer the system batches claims for. Identity (code) is
// immutable; business parameters are maintained by an external onboarding flow
// and read-only here.
type Insurer struct {
	ID                     snowflake.ID                           `gorm:"primaryKey" json:"id"`
	Code                   string                                 `gorm:"type:text;not null;uniqueIndex:ux_insurers_code" json:"code"`
	Name                   string                                 `gorm:"type:text;not null" json:"name"`
	Email                  string                                 `gorm:"type:text" json:"email"`
	DailyCapacity          int                                    `gorm:"not null;default:0" json:"daily_capacity"`
	MinBatchSize           int                                    `gorm:"not null;default:1" json:"min_batch_size"`
	MaxBatchSize           int                                    `gorm:"not null;default:1" json:"max_batch_size"`
	ProcessingCostPerClaim float64                                `gorm:"not null;default:0" json:"processing_cost_per_claim"`
	ProcessingCostPerBatch float64                                `gorm:"not null;default:0" json:"processing_cost_per_batch"`
	DatePreference         DatePreference                         `gorm:"type:text;not null;default:'submission_date'" json:"date_preference"`
	SpecialtyMultipliers   datatypes.JSONType[map[string]float64] `gorm:"type:jsonb" json:"specialty_multipliers"`
	IsActive               bool                                   `gorm:"not null;default:true" json:"is_active"`
	CreatedAt              time.Time                              `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time                              `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Insurer) TableName() string { return "insurers" }

// SpecialtyMultiplier returns the configured multiplier for a specialty, or 1.0.
func (i *Insurer) SpecialtyMultiplier(specialty string) float64 {
	multipliers := i.SpecialtyMultipliers.Data()
	if multipliers == nil {
		return 1.0
	}
	if m, ok := multipliers[specialty]; ok {
		return m
	}
	return 1.0
}

// BatchDatePreference returns the configured preference, defaulting to submission date.
func (i *Insurer) BatchDatePreference() DatePreference {
	if i.DatePreference == DatePreferenceEncounter {
		return DatePreferenceEncounter
	}
	return DatePreferenceSubmission
}
