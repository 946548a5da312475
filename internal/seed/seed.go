// Package seed bootstraps the insurer registry for local and self-hosted
// deployments.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type insurerSeed struct {
	Name                   string
	Code                   string
	Email                  string
	DailyCapacity          int
	MinBatchSize           int
	MaxBatchSize           int
	ProcessingCostPerClaim float64
	ProcessingCostPerBatch float64
	DatePreference         insurerdomain.DatePreference
	SpecialtyMultipliers   map[string]float64
}

var defaultInsurers = []insurerSeed{
	{
		Name:                   "Blue Cross Blue Shield",
		Code:                   "BCBS",
		Email:                  "claims@bcbs.com",
		DailyCapacity:          2000,
		MinBatchSize:           5,
		MaxBatchSize:           50,
		ProcessingCostPerClaim: 3.50,
		ProcessingCostPerBatch: 15.00,
		DatePreference:         insurerdomain.DatePreferenceSubmission,
		SpecialtyMultipliers: map[string]float64{
			"Cardiology":       1.2,
			"Neurology":        1.3,
			"Surgery":          1.5,
			"General Practice": 1.0,
			"Pediatrics":       0.9,
			"Dermatology":      1.1,
		},
	},
	{
		Name:                   "Aetna Health Insurance",
		Code:                   "AETNA",
		Email:                  "processing@aetna.com",
		DailyCapacity:          1500,
		MinBatchSize:           3,
		MaxBatchSize:           40,
		ProcessingCostPerClaim: 4.00,
		ProcessingCostPerBatch: 20.00,
		DatePreference:         insurerdomain.DatePreferenceEncounter,
		SpecialtyMultipliers: map[string]float64{
			"Cardiology":       1.15,
			"Neurology":        1.25,
			"Surgery":          1.4,
			"General Practice": 1.0,
			"Pediatrics":       0.95,
			"Dermatology":      1.05,
		},
	},
	{
		Name:                   "UnitedHealth Group",
		Code:                   "UHG",
		Email:                  "batches@uhg.com",
		DailyCapacity:          3000,
		MinBatchSize:           10,
		MaxBatchSize:           100,
		ProcessingCostPerClaim: 2.75,
		ProcessingCostPerBatch: 12.50,
		DatePreference:         insurerdomain.DatePreferenceSubmission,
		SpecialtyMultipliers: map[string]float64{
			"Cardiology":       1.1,
			"Neurology":        1.2,
			"Surgery":          1.35,
			"General Practice": 1.0,
			"Pediatrics":       0.85,
			"Dermatology":      1.0,
		},
	},
	{
		Name:                   "Humana Inc.",
		Code:                   "HUMANA",
		Email:                  "claims@humana.com",
		DailyCapacity:          1200,
		MinBatchSize:           2,
		MaxBatchSize:           30,
		ProcessingCostPerClaim: 4.25,
		ProcessingCostPerBatch: 18.00,
		DatePreference:         insurerdomain.DatePreferenceEncounter,
		SpecialtyMultipliers: map[string]float64{
			"Cardiology":       1.3,
			"Neurology":        1.4,
			"Surgery":          1.6,
			"General Practice": 1.0,
			"Pediatrics":       1.0,
			"Dermatology":      1.1,
		},
	},
	{
		Name:                   "Cigna Corporation",
		Code:                   "CIGNA",
		Email:                  "processing@cigna.com",
		DailyCapacity:          1800,
		MinBatchSize:           5,
		MaxBatchSize:           60,
		ProcessingCostPerClaim: 3.75,
		ProcessingCostPerBatch: 16.50,
		DatePreference:         insurerdomain.DatePreferenceSubmission,
		SpecialtyMultipliers: map[string]float64{
			"Cardiology":       1.25,
			"Neurology":        1.35,
			"Surgery":          1.45,
			"General Practice": 1.0,
			"Pediatrics":       0.9,
			"Dermatology":      1.05,
		},
	},
}

// EnsureInsurers upserts the default payer registry. Existing rows are updated
// in place so parameter changes ship with the binary.
func EnsureInsurers(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, s := range defaultInsurers {
			if err := ensureInsurerTx(ctx, tx, node, s); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureInsurerTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, s insurerSeed) error {
	var existing insurerdomain.Insurer
	err := tx.WithContext(ctx).First(&existing, "code = ?", s.Code).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		ins := insurerdomain.Insurer{
			ID:                     node.Generate(),
			Code:                   s.Code,
			Name:                   s.Name,
			Email:                  s.Email,
			DailyCapacity:          s.DailyCapacity,
			MinBatchSize:           s.MinBatchSize,
			MaxBatchSize:           s.MaxBatchSize,
			ProcessingCostPerClaim: s.ProcessingCostPerClaim,
			ProcessingCostPerBatch: s.ProcessingCostPerBatch,
			DatePreference:         s.DatePreference,
			SpecialtyMultipliers:   datatypes.NewJSONType(s.SpecialtyMultipliers),
			IsActive:               true,
		}
		return tx.WithContext(ctx).Create(&ins).Error
	}

	return tx.WithContext(ctx).
		Model(&existing).
		Updates(map[string]any{
			"name":                      s.Name,
			"email":                     s.Email,
			"daily_capacity":            s.DailyCapacity,
			"min_batch_size":            s.MinBatchSize,
			"max_batch_size":            s.MaxBatchSize,
			"processing_cost_per_claim": s.ProcessingCostPerClaim,
			"processing_cost_per_batch": s.ProcessingCostPerBatch,
			"date_preference":           s.DatePreference,
			"specialty_multipliers":     datatypes.NewJSONType(s.SpecialtyMultipliers),
		}).Error
}
