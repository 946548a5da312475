// Package analytics reports batching effectiveness: counts, savings against
// individual processing and average optimality.
package analytics

import (
	"context"

	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/internal/costmodel"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Overview aggregates system-wide claim and batch figures.
type Overview struct {
	TotalClaims      int64   `json:"total_claims"`
	PendingClaims    int64   `json:"pending_claims"`
	TotalBatches     int64   `json:"total_batches"`
	PendingBatches   int64   `json:"pending_batches"`
	TotalSavings     float64 `json:"total_savings"`
	AverageBatchSize float64 `json:"average_batch_size"`
	CostEfficiency   float64 `json:"cost_efficiency"`
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	ClaimRepo   claimdomain.Repository
	BatchRepo   batchdomain.Repository
	InsurerRepo insurerdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	claimRepo   claimdomain.Repository
	batchRepo   batchdomain.Repository
	insurerRepo insurerdomain.Repository
}

func New(p Params) *Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("analytics.service"),
		claimRepo:   p.ClaimRepo,
		batchRepo:   p.BatchRepo,
		insurerRepo: p.InsurerRepo,
	}
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	totalClaims, err := s.claimRepo.Count(ctx, s.db)
	if err != nil {
		return nil, err
	}
	pendingClaims, err := s.claimRepo.CountByStatus(ctx, s.db, claimdomain.ClaimStatusPending)
	if err != nil {
		return nil, err
	}

	var batches []*batchdomain.Batch
	if err := s.db.WithContext(ctx).Find(&batches).Error; err != nil {
		return nil, err
	}

	overview := &Overview{
		TotalClaims:   totalClaims,
		PendingClaims: pendingClaims,
		TotalBatches:  int64(len(batches)),
	}

	insurers := make(map[string]*insurerdomain.Insurer)
	totalSavings := 0.0
	batchSizeSum := 0
	scoreSum := 0.0
	scored := 0

	for _, batch := range batches {
		if batch.Status == batchdomain.BatchStatusPending {
			overview.PendingBatches++
		}
		batchSizeSum += batch.TotalClaims

		ins, ok := insurers[batch.InsurerCode]
		if !ok {
			ins, err = s.insurerRepo.FindByCode(ctx, s.db, batch.InsurerCode)
			if err != nil {
				return nil, err
			}
			insurers[batch.InsurerCode] = ins
		}
		if ins == nil {
			continue
		}

		savings, err := s.batchSavings(ctx, ins, batch)
		if err != nil {
			return nil, err
		}
		totalSavings += savings

		if batch.Status != batchdomain.BatchStatusPending {
			scoreSum += batch.OptimalityScore(ins)
			scored++
		}
	}

	overview.TotalSavings = costmodel.Round2(totalSavings)
	if len(batches) > 0 {
		overview.AverageBatchSize = costmodel.Round2(float64(batchSizeSum) / float64(len(batches)))
	}
	if scored > 0 {
		overview.CostEfficiency = costmodel.Round2(scoreSum / float64(scored))
	}
	return overview, nil
}

// CostAnalysis narrows the overview to cost figures: realized savings plus the
// average size and optimality of batches that have left the pending state.
type CostAnalysis struct {
	TotalSavings     float64 `json:"total_savings"`
	AverageBatchSize float64 `json:"average_batch_size"`
	CostEfficiency   float64 `json:"cost_efficiency"`
}

func (s *Service) CostAnalysis(ctx context.Context) (*CostAnalysis, error) {
	var batches []*batchdomain.Batch
	if err := s.db.WithContext(ctx).Find(&batches).Error; err != nil {
		return nil, err
	}

	insurers := make(map[string]*insurerdomain.Insurer)
	totalSavings := 0.0
	batchSizeSum := 0
	scoreSum := 0.0
	scored := 0

	for _, batch := range batches {
		ins, ok := insurers[batch.InsurerCode]
		if !ok {
			var err error
			ins, err = s.insurerRepo.FindByCode(ctx, s.db, batch.InsurerCode)
			if err != nil {
				return nil, err
			}
			insurers[batch.InsurerCode] = ins
		}
		if ins == nil {
			continue
		}

		savings, err := s.batchSavings(ctx, ins, batch)
		if err != nil {
			return nil, err
		}
		totalSavings += savings

		if batch.Status != batchdomain.BatchStatusPending {
			batchSizeSum += batch.TotalClaims
			scoreSum += batch.OptimalityScore(ins)
			scored++
		}
	}

	analysis := &CostAnalysis{TotalSavings: costmodel.Round2(totalSavings)}
	if scored > 0 {
		analysis.AverageBatchSize = costmodel.Round2(float64(batchSizeSum) / float64(scored))
		analysis.CostEfficiency = costmodel.Round2(scoreSum / float64(scored))
	}
	return analysis, nil
}

// batchSavings compares the batch's actual processing cost against what each
// claim would cost processed alone, one flat fee per claim.
func (s *Service) batchSavings(ctx context.Context, ins *insurerdomain.Insurer, batch *batchdomain.Batch) (float64, error) {
	claims, err := s.batchRepo.ListClaims(ctx, s.db, batch.ID)
	if err != nil {
		return 0, err
	}
	if len(claims) == 0 {
		return 0, nil
	}

	individual := 0.0
	for _, claim := range claims {
		individual += ins.ProcessingCostPerBatch + costmodel.Cost(ins, claim.CostFactors(), batch.BatchDate)
	}

	savings := individual - batch.ProcessingCost
	if savings < 0 {
		return 0, nil
	}
	return savings, nil
}
