package domain

import (
	"context"

	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
)

// Notifier delivers a ready batch to the insurer. A returned error marks the
// batch failed; retry policy belongs to the caller's scheduler.
type Notifier interface {
	NotifyBatchReady(ctx context.Context, ins *insurerdomain.Insurer, batch *Batch, claims []*claimdomain.Claim) error
}
