package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sort"

	batchdomain "github.com/healthlane/claimflow/internal/batch/domain"
	claimdomain "github.com/healthlane/claimflow/internal/claim/domain"
	insurerdomain "github.com/healthlane/claimflow/internal/insurer/domain"
	"go.uber.org/zap"
)

var batchReadyTmpl = template.Must(template.New("batch_ready").Parse(`<html>
<body>
<h2>New Claims Batch Ready for Processing</h2>
<p>Dear {{.InsurerName}},</p>
<p>A new batch of claims is ready for processing.</p>
<table border="0" cellpadding="4">
  <tr><td>Batch ID</td><td>#{{.BatchID}}</td></tr>
  <tr><td>Batch Date</td><td>{{.BatchDate}}</td></tr>
  <tr><td>Total Claims</td><td>{{.TotalClaims}}</td></tr>
  <tr><td>Total Amount</td><td>${{printf "%.2f" .TotalAmount}}</td></tr>
  <tr><td>Processing Cost</td><td>${{printf "%.2f" .ProcessingCost}}</td></tr>
</table>
<h3>Claims by Provider</h3>
<table border="1" cellpadding="4">
  <tr><th>Provider</th><th>Claims</th><th>Amount</th></tr>
  {{range .Providers}}<tr><td>{{.Name}}</td><td>{{.ClaimsCount}}</td><td>${{printf "%.2f" .TotalAmount}}</td></tr>
  {{end}}
</table>
</body>
</html>`))

type providerRow struct {
	Name        string
	ClaimsCount int
	TotalAmount float64
}

type batchReadyData struct {
	InsurerName    string
	BatchID        string
	BatchDate      string
	TotalClaims    int
	TotalAmount    float64
	ProcessingCost float64
	Providers      []providerRow
}

// BatchNotifier delivers ready batches to insurers over email.
type BatchNotifier struct {
	provider Provider
	log      *zap.Logger
}

func NewBatchNotifier(provider Provider, log *zap.Logger) batchdomain.Notifier {
	return &BatchNotifier{
		provider: provider,
		log:      log.Named("email.notifier"),
	}
}

func (n *BatchNotifier) NotifyBatchReady(ctx context.Context, ins *insurerdomain.Insurer, batch *batchdomain.Batch, claims []*claimdomain.Claim) error {
	if ins.Email == "" {
		n.log.Warn("insurer has no email, skipping batch notification",
			zap.String("insurer_code", ins.Code),
			zap.String("batch_id", batch.ID.String()),
		)
		return nil
	}

	breakdown := batch.ProviderBreakdown.Data()
	providers := make([]providerRow, 0, len(breakdown))
	for name, stats := range breakdown {
		providers = append(providers, providerRow{
			Name:        name,
			ClaimsCount: stats.ClaimsCount,
			TotalAmount: stats.TotalAmount,
		})
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Name < providers[j].Name })

	var body bytes.Buffer
	err := batchReadyTmpl.Execute(&body, batchReadyData{
		InsurerName:    ins.Name,
		BatchID:        batch.ID.String(),
		BatchDate:      batch.BatchDate.Format("2006-01-02"),
		TotalClaims:    batch.TotalClaims,
		TotalAmount:    batch.TotalAmount,
		ProcessingCost: batch.ProcessingCost,
		Providers:      providers,
	})
	if err != nil {
		return fmt.Errorf("failed to render batch notification: %w", err)
	}

	subject := fmt.Sprintf("New Claims Batch Ready for Processing - Batch #%s", batch.ID.String())
	if err := n.provider.Send(ctx, []string{ins.Email}, subject, body.String()); err != nil {
		return fmt.Errorf("failed to send batch notification: %w", err)
	}

	n.log.Info("batch notification sent",
		zap.String("batch_id", batch.ID.String()),
		zap.String("insurer_code", ins.Code),
		zap.String("to", ins.Email),
		zap.Int("claims", len(claims)),
	)
	return nil
}
