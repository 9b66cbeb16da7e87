package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/history"
	"github.com/auditly/invoice-auditor/internal/models"
)

// DuplicateDetector flags invoices that likely repeat a previously
// audited one. It does exact matching on invoice id and fingerprint,
// and fuzzy matching on the (vendor, total, issue date) triple.
type DuplicateDetector struct {
	store  history.Store
	logger *zap.Logger
}

// NewDuplicateDetector creates a detector over the given history store.
func NewDuplicateDetector(store history.Store, logger *zap.Logger) *DuplicateDetector {
	return &DuplicateDetector{store: store, logger: logger}
}

// Check compares the invoice against every history entry and returns
// duplicate issues. An exact invoice-id match short-circuits the fuzzy
// comparison for that candidate; fuzzy matching requires the
// normalized vendor name to match, totals to agree within one cent,
// and issue dates to be identical. Partial matches are not reported.
func (d *DuplicateDetector) Check(ctx context.Context, inv *models.Invoice) ([]models.Issue, error) {
	records, err := d.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoice history: %w", err)
	}

	vendor := models.NormalizeVendorName(inv.Vendor.Name)
	fingerprint := inv.Fingerprint()
	issueDay := inv.IssueDate.Format("2006-01-02")

	var issues []models.Issue
	for _, rec := range records {
		if inv.InvoiceID != "" && rec.InvoiceID == inv.InvoiceID {
			issue := newIssue(models.KindDuplicateInvoice,
				fmt.Sprintf("Invoice ID %s already exists in the system", inv.InvoiceID))
			issue.Source = models.SourceDuplicateDetector
			issues = append(issues, issue)
			d.logger.Info("Exact duplicate detected",
				zap.String("invoice_id", inv.InvoiceID))
			continue
		}

		if rec.Fingerprint == fingerprint {
			issue := newIssue(models.KindDuplicateInvoice,
				fmt.Sprintf("Invoice content exactly matches existing invoice %s", rec.InvoiceID))
			issue.Source = models.SourceDuplicateDetector
			issues = append(issues, issue)
			continue
		}

		if vendor != "" &&
			rec.Vendor == vendor &&
			rec.Total.Sub(inv.Total).Abs().LessThanOrEqual(amountTolerance) &&
			rec.IssueDate.Format("2006-01-02") == issueDay {
			issue := newIssue(models.KindDuplicateInvoice,
				fmt.Sprintf("Very similar to invoice %s (same vendor, amount, and date)", rec.InvoiceID))
			issue.Source = models.SourceDuplicateDetector
			issues = append(issues, issue)
			d.logger.Info("Fuzzy duplicate detected",
				zap.String("invoice_id", inv.InvoiceID),
				zap.String("matched_invoice_id", rec.InvoiceID))
		}
	}

	return issues, nil
}

// Remember appends the invoice to history. It must be called after
// Check has read history for this invoice and before the next
// invoice's Check runs; the orchestrator serializes that section.
func (d *DuplicateDetector) Remember(ctx context.Context, inv *models.Invoice, auditedAt time.Time) error {
	if err := d.store.Append(ctx, history.NewRecord(inv, auditedAt)); err != nil {
		return fmt.Errorf("failed to append invoice to history: %w", err)
	}
	return nil
}
