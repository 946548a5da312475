package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProcessReadyBatches sweeps pending batches and hands the ready ones to the
// notifier. A batch is ready when it meets the insurer's minimum and the
// insurer is active. Notification happens after the processing transition
// commits, never under the batch lock; a delivery error marks the batch
// failed.
func (s *Service) ProcessReadyBatches(ctx context.Context) (int, error) {
	batches, err := s.repo.ListPendingWithClaims(ctx, s.db)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, batch := range batches {
		ins, err := s.insurerRepo.FindByCode(ctx, s.db, batch.InsurerCode)
		if err != nil {
			return processed, err
		}
		if ins == nil || !ins.IsActive || !batch.HasMinimumClaims(ins) {
			continue
		}

		now := s.clock.Now()
		ok, err := s.repo.UpdateStatusGuarded(ctx, s.db, batch.ID,
			domain.BatchStatusPending, domain.BatchStatusProcessing,
			map[string]any{"sent_at": now, "updated_at": now},
		)
		if err != nil {
			return processed, err
		}
		if !ok {
			// A concurrent sweep or manual transition won the race.
			continue
		}
		batch.Status = domain.BatchStatusProcessing
		batch.SentAt = &now

		claims, err := s.repo.ListClaims(ctx, s.db, batch.ID)
		if err != nil {
			return processed, err
		}

		if err := s.notifier.NotifyBatchReady(ctx, ins, batch, claims); err != nil {
			s.log.Error("batch notification failed",
				zap.String("batch_id", batch.ID.String()),
				zap.String("insurer_code", batch.InsurerCode),
				zap.Error(err),
			)
			failedAt := s.clock.Now()
			if _, ferr := s.repo.UpdateStatusGuarded(ctx, s.db, batch.ID,
				domain.BatchStatusProcessing, domain.BatchStatusFailed,
				map[string]any{"updated_at": failedAt},
			); ferr != nil {
				return processed, ferr
			}
			if s.metrics != nil {
				s.metrics.BatchesProcessed.WithLabelValues("failed").Inc()
			}
			continue
		}

		if s.metrics != nil {
			s.metrics.BatchesProcessed.WithLabelValues("ok").Inc()
		}
		s.log.Info("batch processed",
			zap.String("batch_id", batch.ID.String()),
			zap.String("insurer_code", batch.InsurerCode),
			zap.Int("total_claims", batch.TotalClaims),
			zap.Float64("total_amount", batch.TotalAmount),
			zap.Float64("processing_cost", batch.ProcessingCost),
		)
		processed++
	}

	return processed, nil
}

// CompleteBatch confirms insurer delivery: processing -> completed, cascading
// every batched claim to completed.
func (s *Service) CompleteBatch(ctx context.Context, id snowflake.ID) (*domain.Batch, error) {
	var completed *domain.Batch
	err := s.db.Transaction(func(tx *gorm.DB) error {
		batch, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if batch == nil {
			return domain.ErrBatchNotFound
		}

		now := s.clock.Now()
		ok, err := s.repo.UpdateStatusGuarded(ctx, tx, batch.ID,
			domain.BatchStatusProcessing, domain.BatchStatusCompleted,
			map[string]any{"completed_at": now, "updated_at": now},
		)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}

		err = tx.WithContext(ctx).
			Model(&claimdomain.Claim{}).
			Where("batch_id = ? AND status = ?", batch.ID, claimdomain.ClaimStatusBatched).
			Updates(map[string]any{
				"status":       claimdomain.ClaimStatusCompleted,
				"processed_at": now,
				"updated_at":   now,
			}).Error
		if err != nil {
			return err
		}

		batch.Status = domain.BatchStatusCompleted
		batch.CompletedAt = &now
		completed = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("batch completed",
		zap.String("batch_id", completed.ID.String()),
		zap.Int("claims_completed", completed.TotalClaims),
	)
	return completed, nil
}
