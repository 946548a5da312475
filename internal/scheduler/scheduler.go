// Package scheduler runs the periodic batch sweep: pending batches that meet
// their insurer's minimum are marked processing and delivered.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
	"github.com/healthlane/claimflow/internal/clock"
	"github.com/healthlane/claimflow/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepTimeout = 2 * time.Minute

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Config   config.Config
	BatchSvc batchdomain.Service
}

type Scheduler struct {
	log      *zap.Logger
	clock    clock.Clock
	interval time.Duration
	batchSvc batchdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.BatchSvc == nil {
		return nil, ErrInvalidConfig
	}
	interval := p.Config.Scheduler.SweepInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		clock:    p.Clock,
		interval: interval,
		batchSvc: p.BatchSvc,
	}, nil
}

// RunOnce executes one sweep with its own timeout and run id.
func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, sweepTimeout)
	defer cancel()

	runID := uuid.NewString()
	start := s.clock.Now()
	log := s.log.With(
		zap.String("job", "batch_sweep"),
		zap.String("run_id", runID),
	)

	processed, err := s.batchSvc.ProcessReadyBatches(ctx)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			log.Warn("sweep timed out",
				zap.Duration("timeout", sweepTimeout),
				zap.Int("processed", processed),
			)
			return nil
		}
		return fmt.Errorf("batch_sweep: %w", err)
	}

	log.Info("sweep finished",
		zap.Int("processed", processed),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// RunForever loops RunOnce on the configured interval until the context is
// cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
