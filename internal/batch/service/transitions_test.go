package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessReadyBatches_NotifiesAndMarksProcessing(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", 2, 10)
	date := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	batch := env.allocate(t, ins, env.seedClaim(t, ins, "City Clinic", 500), date)
	env.allocate(t, ins, env.seedClaim(t, ins, "Metro Health", 300), date)

	processed, err := env.svc.ProcessReadyBatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, []snowflake.ID{batch.ID}, env.notifier.notified)

	reloaded := env.reloadBatch(t, batch.ID)
	assert.Equal(t, domain.BatchStatusProcessing, reloaded.Status)
	assert.NotNil(t, reloaded.SentAt)
}

func TestProcessReadyBatches_SkipsBelowMinimum(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", 5, 10)
	date := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	batch := env.allocate(t, ins, env.seedClaim(t, ins, "City Clinic", 500), date)

	processed, err := env.svc.ProcessReadyBatches(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Empty(t, env.notifier.notified)
	assert.Equal(t, domain.BatchStatusPending, env.reloadBatch(t, batch.ID).Status)
}

func TestProcessReadyBatches_SkipsInactiveInsurer(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", 1, 10)
	date := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	batch := env.allocate(t, ins, env.seedClaim(t, ins, "City Clinic", 500), date)
	require.NoError(t, env.db.Model(ins).Update("is_active", false).Error)

	processed, err := env.svc.ProcessReadyBatches(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Equal(t, domain.BatchStatusPending, env.reloadBatch(t, batch.ID).Status)
}

func TestProcessReadyBatches_NotificationFailureMarksFailed(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", 1, 10)
	date := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	batch := env.allocate(t, ins, env.seedClaim(t, ins, "City Clinic", 500), date)
	env.notifier.err = errors.New("smtp unreachable")

	processed, err := env.svc.ProcessReadyBatches(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Equal(t, domain.BatchStatusFailed, env.reloadBatch(t, batch.ID).Status)
}

func TestCompleteBatch_CascadesClaims(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", 1, 10)
	date := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	claim := env.seedClaim(t, ins, "City Clinic", 500)
	batch := env.allocate(t, ins, claim, date)

	_, err := env.svc.ProcessReadyBatches(context.Background())
	require.NoError(t, err)

	completed, err := env.svc.CompleteBatch(context.Background(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	var reloaded claimdomain.Claim
	require.NoError(t, env.db.First(&reloaded, "id = ?", claim.ID).Error)
	assert.Equal(t, claimdomain.ClaimStatusCompleted, reloaded.Status)
	assert.NotNil(t, reloaded.ProcessedAt)
}

func TestCompleteBatch_RejectsPendingBatch(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", 1, 10)
	date := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	batch := env.allocate(t, ins, env.seedClaim(t, ins, "City Clinic", 500), date)

	_, err := env.svc.CompleteBatch(context.Background(), batch.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCompleteBatch_UnknownBatch(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CompleteBatch(context.Background(), env.node.Generate())
	assert.ErrorIs(t, err, domain.ErrBatchNotFound)
}
