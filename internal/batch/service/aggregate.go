package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/internal/costmodel"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AddClaimInTx assigns the claim to the batch and re-derives the aggregate
// from the resulting claim set.
func (s *Service) AddClaimInTx(ctx context.Context, tx *gorm.DB, ins *insurerdomain.Insurer, batch *domain.Batch, claim *claimdomain.Claim) error {
	now := s.clock.Now()

	claim.Status = claimdomain.ClaimStatusBatched
	claim.BatchID = &batch.ID
	claim.BatchedAt = &now
	err := tx.WithContext(ctx).
		Model(&claimdomain.Claim{}).
		Where("id = ?", claim.ID).
		Updates(map[string]any{
			"status":     claim.Status,
			"batch_id":   batch.ID,
			"batched_at": now,
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}

	if err := s.recalculate(ctx, tx, ins, batch); err != nil {
		return err
	}

	s.log.Info("claim added to batch",
		zap.String("claim_id", claim.ID.String()),
		zap.String("batch_id", batch.ID.String()),
		zap.Int("batch_claims", batch.TotalClaims),
	)
	return nil
}

// RemoveClaimInTx detaches the claim, cancels it and re-derives the aggregate.
// A batch left without claims is deleted, freeing its date key.
func (s *Service) RemoveClaimInTx(ctx context.Context, tx *gorm.DB, claim *claimdomain.Claim) error {
	if claim.BatchID == nil {
		return nil
	}
	batchID := *claim.BatchID
	now := s.clock.Now()

	claim.Status = claimdomain.ClaimStatusCancelled
	claim.BatchID = nil
	claim.BatchedAt = nil
	err := tx.WithContext(ctx).
		Model(&claimdomain.Claim{}).
		Where("id = ?", claim.ID).
		Updates(map[string]any{
			"status":     claimdomain.ClaimStatusCancelled,
			"batch_id":   nil,
			"batched_at": nil,
			"updated_at": now,
		}).Error
	if err != nil {
		return err
	}

	return s.RecalculateInTx(ctx, tx, batchID)
}

// RecalculateInTx re-derives the aggregate for a batch after its claim set or
// a member's total changed. An emptied batch is deleted.
func (s *Service) RecalculateInTx(ctx context.Context, tx *gorm.DB, batchID snowflake.ID) error {
	batch, err := s.repo.FindByID(ctx, tx, batchID)
	if err != nil {
		return err
	}
	if batch == nil {
		return nil
	}

	ins, err := s.insurerRepo.FindByCode(ctx, tx, batch.InsurerCode)
	if err != nil {
		return err
	}
	if ins == nil {
		return insurerdomain.ErrInsurerNotFound
	}

	if err := s.recalculate(ctx, tx, ins, batch); err != nil {
		return err
	}

	if batch.TotalClaims == 0 {
		s.log.Info("batch emptied, deleting",
			zap.String("batch_id", batch.ID.String()),
			zap.String("insurer_code", batch.InsurerCode),
		)
		return s.repo.Delete(ctx, tx, batch.ID)
	}
	return nil
}

// recalculate folds over the batch's current claim set. Deriving everything
// from the claims, including the provider breakdown, keeps removals from
// leaving stale provider stats behind.
func (s *Service) recalculate(ctx context.Context, tx *gorm.DB, ins *insurerdomain.Insurer, batch *domain.Batch) error {
	claims, err := s.repo.ListClaims(ctx, tx, batch.ID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	totalAmount := 0.0
	processingCost := ins.ProcessingCostPerBatch
	breakdown := make(map[string]domain.ProviderStats, len(claims))

	for _, claim := range claims {
		totalAmount += claim.TotalAmount
		processingCost += costmodel.Cost(ins, claim.CostFactors(), batch.BatchDate)

		stats, ok := breakdown[claim.ProviderName]
		if !ok {
			stats = domain.ProviderStats{FirstSeen: claim.CreatedAt}
		}
		if claim.CreatedAt.Before(stats.FirstSeen) {
			stats.FirstSeen = claim.CreatedAt
		}
		stats.ClaimsCount++
		stats.TotalAmount = costmodel.Round2(stats.TotalAmount + claim.TotalAmount)
		stats.LastUpdated = now
		breakdown[claim.ProviderName] = stats
	}

	batch.TotalClaims = len(claims)
	batch.TotalAmount = costmodel.Round2(totalAmount)
	batch.ProcessingCost = costmodel.Round2(processingCost)
	batch.ProviderBreakdown = datatypes.NewJSONType(breakdown)
	batch.ProviderCount = len(breakdown)
	batch.UpdatedAt = now

	return s.repo.Update(ctx, tx, batch)
}
