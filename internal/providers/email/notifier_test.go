package email

import (
	"context"
	"testing"
	"time"

	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type captureProvider struct {
	to      []string
	subject string
	body    string
	sent    int
}

func (p *captureProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	p.to = to
	p.subject = subject
	p.body = htmlBody
	p.sent++
	return nil
}

func testBatch() *batchdomain.Batch {
	return &batchdomain.Batch{
		ID:             12345,
		InsurerCode:    "BCBS",
		BatchDate:      time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		TotalClaims:    2,
		TotalAmount:    1700.00,
		ProcessingCost: 28.35,
		Status:         batchdomain.BatchStatusProcessing,
		ProviderBreakdown: datatypes.NewJSONType(map[string]batchdomain.ProviderStats{
			"City Clinic":  {ClaimsCount: 1, TotalAmount: 500},
			"Metro Health": {ClaimsCount: 1, TotalAmount: 1200},
		}),
	}
}

func TestNotifyBatchReady_SendsSummary(t *testing.T) {
	provider := &captureProvider{}
	notifier := NewBatchNotifier(provider, zap.NewNop())

	ins := &insurerdomain.Insurer{Code: "BCBS", Name: "Blue Cross", Email: "claims@bcbs.test"}
	batch := testBatch()

	require.NoError(t, notifier.NotifyBatchReady(context.Background(), ins, batch, nil))
	assert.Equal(t, 1, provider.sent)
	assert.Equal(t, []string{"claims@bcbs.test"}, provider.to)
	assert.Equal(t, "New Claims Batch Ready for Processing - Batch #12345", provider.subject)
	assert.Contains(t, provider.body, "Blue Cross")
	assert.Contains(t, provider.body, "2025-06-02")
	assert.Contains(t, provider.body, "City Clinic")
	assert.Contains(t, provider.body, "Metro Health")
	assert.Contains(t, provider.body, "$1700.00")
	assert.Contains(t, provider.body, "$28.35")
}

func TestNotifyBatchReady_SkipsWithoutEmail(t *testing.T) {
	provider := &captureProvider{}
	notifier := NewBatchNotifier(provider, zap.NewNop())

	ins := &insurerdomain.Insurer{Code: "BCBS", Name: "Blue Cross"}
	require.NoError(t, notifier.NotifyBatchReady(context.Background(), ins, testBatch(), nil))
	assert.Zero(t, provider.sent)
}
