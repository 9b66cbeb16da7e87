package batch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/audit"
	"github.com/auditly/invoice-auditor/internal/models"
	"github.com/auditly/invoice-auditor/internal/policy"
)

// Item is a single invoice queued for auditing together with the
// source it was extracted from.
type Item struct {
	Source  string
	Invoice *models.Invoice
}

// Result pairs an audited item with its outcome. Err is set when the
// audit itself failed; rule failures are reported inside Result.
type Result struct {
	Source string
	Result *models.AuditResult
	Err    error
}

// Processor audits invoices concurrently with a bounded worker pool.
type Processor struct {
	auditor  *audit.Auditor
	policies *policy.Manager
	workers  int
	logger   *zap.Logger
}

// NewProcessor creates a batch processor. workers values below 1 are
// clamped to 1.
func NewProcessor(auditor *audit.Auditor, policies *policy.Manager, workers int, logger *zap.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		auditor:  auditor,
		policies: policies,
		workers:  workers,
		logger:   logger,
	}
}

// Process audits all items and returns one result per item, in input
// order. A cancelled context fails the remaining unprocessed items.
func (p *Processor) Process(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = p.processOne(ctx, items[idx])
			}
		}()
	}

	for i := range items {
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = Result{Source: items[i].Source, Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (p *Processor) processOne(ctx context.Context, item Item) Result {
	if err := ctx.Err(); err != nil {
		return Result{Source: item.Source, Err: err}
	}
	if item.Invoice == nil {
		return Result{Source: item.Source, Err: fmt.Errorf("no invoice extracted from %s", item.Source)}
	}

	pol := p.policies.Get(item.Invoice.Vendor.Name)
	result, err := p.auditor.Audit(ctx, item.Invoice, pol)
	if err != nil {
		p.logger.Error("batch audit failed",
			zap.String("source", item.Source),
			zap.String("invoice_id", item.Invoice.InvoiceID),
			zap.Error(err))
		return Result{Source: item.Source, Err: fmt.Errorf("audit %s: %w", item.Source, err)}
	}

	p.logger.Info("batch audit complete",
		zap.String("source", item.Source),
		zap.String("invoice_id", result.InvoiceID),
		zap.Int("issues", len(result.Issues)))
	return Result{Source: item.Source, Result: result}
}

// Tally aggregates severity counts across a set of batch results.
func Tally(results []Result) (tally models.SeverityTally, failed int) {
	for _, r := range results {
		if r.Err != nil || r.Result == nil {
			failed++
			continue
		}
		tally.High += r.Result.SeverityCounts.High
		tally.Medium += r.Result.SeverityCounts.Medium
		tally.Low += r.Result.SeverityCounts.Low
	}
	return tally, failed
}
