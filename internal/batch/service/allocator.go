package service

import (
	"context"
	"time"

	"github.com/healthlane/claimflow/internal/batch/domain"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"github.com/healthlane/claimflow/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// maxAllocationAttempts bounds the business-day lookahead when consecutive
// dates are full.
const maxAllocationAttempts = 30

// FindOrCreateBatchInTx implements the allocation loop: reuse the open batch
// for the date, else create one if the date is free, else advance to the next
// business day. Create races on the (insurer_code, batch_date) unique key are
// resolved by retrying the find step on the same date.
func (s *Service) FindOrCreateBatchInTx(ctx context.Context, tx *gorm.DB, ins *insurerdomain.Insurer, targetDate time.Time) (*domain.Batch, error) {
	original := NormalizeDate(targetDate)
	current := original

	for attempts := 0; attempts < maxAllocationAttempts; attempts++ {
		batch, err := s.repo.FindOpenForUpdate(ctx, tx, ins.Code, current, ins.MaxBatchSize)
		if err != nil {
			return nil, err
		}
		if batch != nil {
			return batch, nil
		}

		exists, err := s.repo.ExistsForDate(ctx, tx, ins.Code, current)
		if err != nil {
			return nil, err
		}
		if !exists {
			batch, err := s.createBatch(ctx, tx, ins.Code, current)
			if err == domain.ErrAllocationConflict {
				// Another allocator created the batch first; the find step
				// will pick it up.
				if s.metrics != nil {
					s.metrics.AllocationRetries.Inc()
				}
				continue
			}
			if err != nil {
				return nil, err
			}
			return batch, nil
		}

		// The date is taken and its batch is full; roll forward.
		current = NextBusinessDay(current)
	}

	// Lookahead exhausted. Fall back to the original date; when that key is
	// already occupied the unique constraint rejects the insert and the
	// submission surfaces the conflict instead of overfilling the date.
	s.log.Warn("batch allocation lookahead exhausted",
		zap.String("insurer_code", ins.Code),
		zap.Time("target_date", original),
	)
	batch, err := s.createBatch(ctx, tx, ins.Code, original)
	if err == domain.ErrAllocationConflict {
		return nil, domain.ErrCapacityExhausted
	}
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *Service) createBatch(ctx context.Context, tx *gorm.DB, insurerCode string, date time.Time) (*domain.Batch, error) {
	now := s.clock.Now()
	batch := &domain.Batch{
		ID:                s.genID.Generate(),
		InsurerCode:       insurerCode,
		BatchDate:         date,
		Status:            domain.BatchStatusPending,
		ProviderBreakdown: datatypes.NewJSONType(map[string]domain.ProviderStats{}),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	// The insert runs under a savepoint: on postgres a unique violation
	// aborts the surrounding transaction, and the retry of the find step
	// needs it alive.
	if err := tx.SavePoint("alloc").Error; err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, tx, batch); err != nil {
		if db.IsDuplicateKeyErr(err) {
			if rbErr := tx.RollbackTo("alloc").Error; rbErr != nil {
				return nil, rbErr
			}
			return nil, domain.ErrAllocationConflict
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BatchesCreated.Inc()
	}
	s.log.Info("batch created",
		zap.String("batch_id", batch.ID.String()),
		zap.String("insurer_code", insurerCode),
		zap.Time("batch_date", date),
	)
	return batch, nil
}

// NormalizeDate truncates to midnight UTC so batch dates compare as calendar
// days.
func NormalizeDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextBusinessDay advances one day, skipping Saturday and Sunday.
func NextBusinessDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
