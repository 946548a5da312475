package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/healthlane/claimflow/internal/batch/domain"
	batchrepo "github.com/healthlane/claimflow/internal/batch/repository"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	"github.com/healthlane/claimflow/internal/clock"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	insurerrepo "github.com/healthlane/claimflow/internal/insurer/repository"
	"github.com/healthlane/claimflow/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type stubNotifier struct {
	notified []snowflake.ID
	err      error
}

func (n *stubNotifier) NotifyBatchReady(ctx context.Context, ins *insurerdomain.Insurer, batch *domain.Batch, claims []*claimdomain.Claim) error {
	if n.err != nil {
		return n.err
	}
	n.notified = append(n.notified, batch.ID)
	return nil
}

type testEnv struct {
	db       *gorm.DB
	svc      *Service
	node     *snowflake.Node
	clock    *clock.FakeClock
	notifier *stubNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))
	notifier := &stubNotifier{}

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fake,
		Repo:        batchrepo.Provide(),
		InsurerRepo: insurerrepo.Provide(),
		Notifier:    notifier,
	}).(*Service)

	return &testEnv{db: db, svc: svc, node: node, clock: fake, notifier: notifier}
}

func (e *testEnv) serviceWithRepo(repo domain.Repository) *Service {
	return New(Params{
		DB:          e.db,
		Log:         zap.NewNop(),
		GenID:       e.node,
		Clock:       e.clock,
		Repo:        repo,
		InsurerRepo: insurerrepo.Provide(),
		Notifier:    e.notifier,
	}).(*Service)
}

func (e *testEnv) seedInsurer(t *testing.T, code string, minSize, maxSize int) *insurerdomain.Insurer {
	t.Helper()
	ins := &insurerdomain.Insurer{
		ID:                     e.node.Generate(),
		Code:                   code,
		Name:                   code + " Test Payer",
		Email:                  "claims@" + code + ".test",
		MinBatchSize:           minSize,
		MaxBatchSize:           maxSize,
		ProcessingCostPerClaim: 3.50,
		ProcessingCostPerBatch: 15.00,
		DatePreference:         insurerdomain.DatePreferenceSubmission,
		SpecialtyMultipliers: datatypes.NewJSONType(map[string]float64{
			"Cardiology": 1.2,
		}),
		IsActive: true,
	}
	require.NoError(t, e.db.Create(ins).Error)
	return ins
}

func (e *testEnv) seedClaim(t *testing.T, ins *insurerdomain.Insurer, provider string, amount float64) *claimdomain.Claim {
	t.Helper()
	now := e.clock.Now()
	claim := &claimdomain.Claim{
		ID:             e.node.Generate(),
		ProviderName:   provider,
		InsurerCode:    ins.Code,
		EncounterDate:  now.AddDate(0, 0, -1),
		SubmissionDate: now,
		Specialty:      "Cardiology",
		PriorityLevel:  3,
		TotalAmount:    amount,
		Status:         claimdomain.ClaimStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, e.db.Create(claim).Error)
	return claim
}

func (e *testEnv) allocate(t *testing.T, ins *insurerdomain.Insurer, claim *claimdomain.Claim, date time.Time) *domain.Batch {
	t.Helper()
	var batch *domain.Batch
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		batch, err = e.svc.FindOrCreateBatchInTx(context.Background(), tx, ins, date)
		if err != nil {
			return err
		}
		return e.svc.AddClaimInTx(context.Background(), tx, ins, batch, claim)
	})
	require.NoError(t, err)
	return batch
}

func (e *testEnv) reloadBatch(t *testing.T, id snowflake.ID) *domain.Batch {
	t.Helper()
	batch, err := e.svc.repo.FindByID(context.Background(), e.db, id)
	require.NoError(t, err)
	return batch
}

func assertSameDay(t *testing.T, want, got time.Time) {
	t.Helper()
	assert.Equal(t, want.Format("2006-01-02"), got.UTC().Format("2006-01-02"))
}
