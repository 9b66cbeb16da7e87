package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/audit"
	"github.com/auditly/invoice-auditor/internal/history"
	"github.com/auditly/invoice-auditor/internal/models"
	"github.com/auditly/invoice-auditor/internal/policy"
)

func newTestProcessor(t *testing.T, workers int) *Processor {
	t.Helper()
	logger := zap.NewNop()
	auditor := audit.NewAuditor(history.NewMemoryStore(), logger)
	policies, err := policy.NewManager(filepath.Join(t.TempDir(), "none"), logger)
	require.NoError(t, err)
	return NewProcessor(auditor, policies, workers, logger)
}

func invoiceItem(id string) Item {
	return Item{
		Source: id + ".json",
		Invoice: &models.Invoice{
			InvoiceID: id,
			Vendor:    models.VendorInfo{Name: "Vendor " + id},
			IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
			Total:     decimal.NewFromInt(100),
		},
	}
}

func TestProcessKeepsInputOrder(t *testing.T) {
	p := newTestProcessor(t, 4)

	var items []Item
	for i := 0; i < 10; i++ {
		items = append(items, invoiceItem(fmt.Sprintf("INV-%03d", i)))
	}

	results := p.Process(context.Background(), items)

	require.Len(t, results, 10)
	for i, r := range results {
		require.NoError(t, r.Err)
		require.NotNil(t, r.Result)
		assert.Equal(t, items[i].Source, r.Source)
		assert.Equal(t, items[i].Invoice.InvoiceID, r.Result.InvoiceID)
	}
}

func TestProcessNilInvoiceFails(t *testing.T) {
	p := newTestProcessor(t, 2)

	results := p.Process(context.Background(), []Item{
		invoiceItem("INV-1"),
		{Source: "broken.json"},
	})

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "broken.json")
}

func TestProcessEmptyInput(t *testing.T) {
	p := newTestProcessor(t, 2)
	assert.Empty(t, p.Process(context.Background(), nil))
}

func TestProcessCancelledContext(t *testing.T) {
	p := newTestProcessor(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := p.Process(ctx, []Item{invoiceItem("INV-1"), invoiceItem("INV-2")})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Error(t, r.Err)
	}
}

func TestTally(t *testing.T) {
	results := []Result{
		{Result: &models.AuditResult{SeverityCounts: models.SeverityTally{High: 1, Low: 2}}},
		{Result: &models.AuditResult{SeverityCounts: models.SeverityTally{Medium: 3}}},
		{Err: fmt.Errorf("boom")},
	}

	tally, failed := Tally(results)
	assert.Equal(t, 1, tally.High)
	assert.Equal(t, 3, tally.Medium)
	assert.Equal(t, 2, tally.Low)
	assert.Equal(t, 1, failed)
}
