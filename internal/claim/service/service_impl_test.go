package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
	batchrepo "github.com/healthlane/claimflow/internal/batch/repository"
	batchservice "github.com/healthlane/claimflow/internal/batch/service"
	"github.com/healthlane/claimflow/internal/claim/domain"
	claimrepo "github.com/healthlane/claimflow/internal/claim/repository"
	"github.com/healthlane/claimflow/internal/clock"
	"github.com/healthlane/claimflow/internal/costmodel"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	insurerrepo "github.com/healthlane/claimflow/internal/insurer/repository"
	insurerservice "github.com/healthlane/claimflow/internal/insurer/service"
	"github.com/healthlane/claimflow/internal/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type noopNotifier struct{}

func (noopNotifier) NotifyBatchReady(ctx context.Context, ins *insurerdomain.Insurer, batch *batchdomain.Batch, claims []*domain.Claim) error {
	return nil
}

type testEnv struct {
	db       *gorm.DB
	svc      domain.Service
	batchSvc batchdomain.Service
	node     *snowflake.Node
	clock    *clock.FakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC))

	insurerSvc := insurerservice.New(insurerservice.Params{
		DB:   db,
		Log:  log,
		Repo: insurerrepo.Provide(),
	})
	batchSvc := batchservice.New(batchservice.Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Clock:       fake,
		Repo:        batchrepo.Provide(),
		InsurerRepo: insurerrepo.Provide(),
		Notifier:    noopNotifier{},
	})
	svc := New(Params{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      fake,
		Repo:       claimrepo.Provide(),
		InsurerSvc: insurerSvc,
		BatchSvc:   batchSvc,
	})

	return &testEnv{db: db, svc: svc, batchSvc: batchSvc, node: node, clock: fake}
}

func (e *testEnv) seedInsurer(t *testing.T, code string, active bool) *insurerdomain.Insurer {
	t.Helper()
	ins := &insurerdomain.Insurer{
		ID:                     e.node.Generate(),
		Code:                   code,
		Name:                   code + " Test Payer",
		Email:                  "claims@" + code + ".test",
		MinBatchSize:           2,
		MaxBatchSize:           10,
		ProcessingCostPerClaim: 5.00,
		ProcessingCostPerBatch: 25.00,
		DatePreference:         insurerdomain.DatePreferenceSubmission,
		SpecialtyMultipliers: datatypes.NewJSONType(map[string]float64{
			"Cardiology": 1.2,
		}),
		IsActive: active,
	}
	require.NoError(t, e.db.Create(ins).Error)
	return ins
}

func submitRequest(ins *insurerdomain.Insurer) domain.SubmitClaimRequest {
	return domain.SubmitClaimRequest{
		ProviderName:  "City Clinic",
		InsurerCode:   ins.Code,
		EncounterDate: time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC),
		Specialty:     "Cardiology",
		Items: []domain.ClaimItemInput{
			{Name: "Consultation", UnitPrice: 150, Quantity: 1},
			{Name: "ECG", UnitPrice: 425.50, Quantity: 2},
		},
	}
}

func TestSubmit_CreatesClaimWithDerivedTotals(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)

	claim, err := env.svc.Submit(context.Background(), submitRequest(ins))
	require.NoError(t, err)

	assert.Equal(t, "City Clinic", claim.ProviderName)
	assert.Equal(t, 3, claim.PriorityLevel)
	require.Len(t, claim.Items, 2)
	assert.Equal(t, 150.0, claim.Items[0].Subtotal)
	assert.Equal(t, 851.0, claim.Items[1].Subtotal)
	assert.Equal(t, 1001.0, claim.TotalAmount)
	assert.Equal(t, domain.ClaimStatusPending, claim.Status)
	assert.Nil(t, claim.BatchID)
}

func TestSubmit_AutoBatchAllocatesAndPrices(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)

	req := submitRequest(ins)
	req.AutoBatch = true
	claim, err := env.svc.Submit(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.ClaimStatusBatched, claim.Status)
	require.NotNil(t, claim.BatchID)

	summary, claims, err := env.batchSvc.Get(context.Background(), *claim.BatchID)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, 1, summary.Batch.TotalClaims)
	assert.Equal(t, 1001.0, summary.Batch.TotalAmount)

	// Submission-date preference: batch lands on the submission day.
	batchDate := summary.Batch.BatchDate
	assert.Equal(t, "2025-06-02", batchDate.UTC().Format("2006-01-02"))

	// 25.00 per batch + 5.00 * 1.2 (specialty) * 1.2 (priority 3) * time * 1.1 (>=1000)
	wantCost := costmodel.Round2(25.00 + costmodel.Cost(ins, claim.CostFactors(), batchDate))
	assert.Equal(t, wantCost, summary.Batch.ProcessingCost)
}

func TestSubmit_RejectsUnknownAndInactiveInsurer(t *testing.T) {
	env := newTestEnv(t)
	inactive := env.seedInsurer(t, "DORMANT", false)

	req := submitRequest(inactive)
	_, err := env.svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, insurerdomain.ErrInsurerInactive)

	req.InsurerCode = "NOPE"
	_, err = env.svc.Submit(context.Background(), req)
	assert.ErrorIs(t, err, insurerdomain.ErrInsurerNotFound)
}

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)

	cases := []struct {
		name    string
		mutate  func(*domain.SubmitClaimRequest)
		wantErr error
	}{
		{"missing provider", func(r *domain.SubmitClaimRequest) { r.ProviderName = "  " }, domain.ErrInvalidProviderName},
		{"missing specialty", func(r *domain.SubmitClaimRequest) { r.Specialty = "" }, domain.ErrInvalidSpecialty},
		{"zero encounter date", func(r *domain.SubmitClaimRequest) { r.EncounterDate = time.Time{} }, domain.ErrInvalidEncounterDate},
		{"priority too high", func(r *domain.SubmitClaimRequest) { p := 6; r.PriorityLevel = &p }, domain.ErrInvalidPriority},
		{"priority too low", func(r *domain.SubmitClaimRequest) { p := 0; r.PriorityLevel = &p }, domain.ErrInvalidPriority},
		{"no items", func(r *domain.SubmitClaimRequest) { r.Items = nil }, domain.ErrNoItems},
		{"negative unit price", func(r *domain.SubmitClaimRequest) { r.Items[0].UnitPrice = -1 }, domain.ErrInvalidUnitPrice},
		{"zero quantity", func(r *domain.SubmitClaimRequest) { r.Items[0].Quantity = 0 }, domain.ErrInvalidQuantity},
		{"blank item name", func(r *domain.SubmitClaimRequest) { r.Items[0].Name = " " }, domain.ErrInvalidItemName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := submitRequest(ins)
			tc.mutate(&req)
			_, err := env.svc.Submit(context.Background(), req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCancel_PendingClaim(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)

	claim, err := env.svc.Submit(context.Background(), submitRequest(ins))
	require.NoError(t, err)

	cancelled, err := env.svc.Cancel(context.Background(), claim.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusCancelled, cancelled.Status)

	_, err = env.svc.Cancel(context.Background(), claim.ID)
	assert.ErrorIs(t, err, domain.ErrClaimNotCancellable)
}

func TestCancel_BatchedClaimDetachesFromBatch(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)

	req := submitRequest(ins)
	req.AutoBatch = true
	first, err := env.svc.Submit(context.Background(), req)
	require.NoError(t, err)
	second, err := env.svc.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, *first.BatchID, *second.BatchID)

	cancelled, err := env.svc.Cancel(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.BatchID)

	summary, claims, err := env.batchSvc.Get(context.Background(), *second.BatchID)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, 1, summary.Batch.TotalClaims)
	assert.Equal(t, second.TotalAmount, summary.Batch.TotalAmount)
}

func TestCancel_UnknownClaim(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Cancel(context.Background(), env.node.Generate())
	assert.ErrorIs(t, err, domain.ErrClaimNotFound)
}

func TestItemMutations_RecomputeClaimAndBatch(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)

	req := submitRequest(ins)
	req.AutoBatch = true
	claim, err := env.svc.Submit(context.Background(), req)
	require.NoError(t, err)
	batchID := *claim.BatchID

	updated, err := env.svc.AddItem(context.Background(), claim.ID, domain.ClaimItemInput{
		Name:      "Lab Panel",
		UnitPrice: 99.50,
		Quantity:  2,
	})
	require.NoError(t, err)
	require.Len(t, updated.Items, 3)
	assert.Equal(t, 1200.0, updated.TotalAmount)

	summary, _, err := env.batchSvc.Get(context.Background(), batchID)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, summary.Batch.TotalAmount)

	item := updated.Items[2]
	updated, err = env.svc.UpdateItem(context.Background(), claim.ID, item.ID, domain.ClaimItemInput{
		Name:      "Lab Panel",
		UnitPrice: 100,
		Quantity:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1101.0, updated.TotalAmount)

	updated, err = env.svc.RemoveItem(context.Background(), claim.ID, item.ID)
	require.NoError(t, err)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, 1001.0, updated.TotalAmount)

	summary, _, err = env.batchSvc.Get(context.Background(), batchID)
	require.NoError(t, err)
	assert.Equal(t, 1001.0, summary.Batch.TotalAmount)
}

func TestRemoveItem_LastItemRejected(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)

	req := submitRequest(ins)
	req.Items = req.Items[:1]
	claim, err := env.svc.Submit(context.Background(), req)
	require.NoError(t, err)

	_, err = env.svc.RemoveItem(context.Background(), claim.ID, claim.Items[0].ID)
	assert.ErrorIs(t, err, domain.ErrNoItems)
}

func TestItemMutations_RejectTerminalClaims(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)

	claim, err := env.svc.Submit(context.Background(), submitRequest(ins))
	require.NoError(t, err)
	_, err = env.svc.Cancel(context.Background(), claim.ID)
	require.NoError(t, err)

	_, err = env.svc.AddItem(context.Background(), claim.ID, domain.ClaimItemInput{
		Name: "X", UnitPrice: 1, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrClaimNotEditable)
}

func TestCostBreakdown_Scenarios(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)

	req := submitRequest(ins)
	req.AutoBatch = true
	claim, err := env.svc.Submit(context.Background(), req)
	require.NoError(t, err)

	scenarios, err := env.svc.CostBreakdown(context.Background(), claim.ID)
	require.NoError(t, err)

	assert.Equal(t, 1.2, scenarios.FirstOfMonth.TimeMultiplier)
	assert.Equal(t, 1.5, scenarios.EndOfMonth.TimeMultiplier)
	assert.GreaterOrEqual(t, scenarios.CurrentDate.TimeMultiplier, 1.2)
	require.NotNil(t, scenarios.BatchDate)
	assert.Equal(t, scenarios.BatchDate.Factors.ProcessDate, "2025-06-02")
}

func TestList_FiltersAndPaginates(t *testing.T) {
	env := newTestEnv(t)
	ins := env.seedInsurer(t, "BCBS", true)
	other := env.seedInsurer(t, "AETNA", true)

	for i := 0; i < 3; i++ {
		_, err := env.svc.Submit(context.Background(), submitRequest(ins))
		require.NoError(t, err)
	}
	otherReq := submitRequest(other)
	otherReq.ProviderName = "Metro Health"
	_, err := env.svc.Submit(context.Background(), otherReq)
	require.NoError(t, err)

	resp, err := env.svc.List(context.Background(), domain.ListClaimRequest{InsurerCode: ins.Code})
	require.NoError(t, err)
	assert.Len(t, resp.Claims, 3)
	assert.EqualValues(t, 3, resp.PageInfo.Total)

	resp, err = env.svc.List(context.Background(), domain.ListClaimRequest{ProviderName: "Metro"})
	require.NoError(t, err)
	require.Len(t, resp.Claims, 1)
	assert.Equal(t, other.Code, resp.Claims[0].InsurerCode)
}
