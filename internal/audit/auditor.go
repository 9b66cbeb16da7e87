package audit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/anomaly"
	"github.com/auditly/invoice-auditor/internal/history"
	"github.com/auditly/invoice-auditor/internal/models"
	"github.com/auditly/invoice-auditor/internal/policy"
)

// Auditor orchestrates one audit: rule engine, duplicate detection,
// the optional external anomaly checker, and result aggregation.
//
// The duplicate check and the subsequent history append run under a
// mutex so concurrent audits observe a consistent history: an
// invoice's append happens after its own check reads history and
// before the next invoice's check does.
type Auditor struct {
	catalog  []Rule
	store    history.Store
	detector *DuplicateDetector
	logger   *zap.Logger

	checker        anomaly.Checker
	checkerTimeout time.Duration

	now func() time.Time

	mu sync.Mutex
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithChecker attaches an external anomaly checker. Every invocation
// is bounded by timeout; on timeout or error the audit proceeds
// without external issues and records a note.
func WithChecker(c anomaly.Checker, timeout time.Duration) Option {
	return func(a *Auditor) {
		a.checker = c
		a.checkerTimeout = timeout
	}
}

// WithClock overrides the audit time source. Used by tests to pin
// "today".
func WithClock(now func() time.Time) Option {
	return func(a *Auditor) {
		a.now = now
	}
}

// NewAuditor creates an auditor over the given history store.
func NewAuditor(store history.Store, logger *zap.Logger, opts ...Option) *Auditor {
	a := &Auditor{
		catalog:  Catalog(),
		store:    store,
		detector: NewDuplicateDetector(store, logger),
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit runs the full audit pipeline for one invoice against one
// policy and appends the invoice to history. The audit always
// completes with a result for any invoice input; the only error paths
// are history store failures.
func (a *Auditor) Audit(ctx context.Context, inv *models.Invoice, pol *policy.Policy) (*models.AuditResult, error) {
	now := a.now()
	if pol == nil {
		// No vendor policy configured: policy-dependent rules pass.
		pol = &policy.Policy{}
	}

	a.logger.Info("Starting invoice audit",
		zap.String("invoice_id", inv.InvoiceID),
		zap.String("vendor", inv.Vendor.Name),
		zap.String("total", inv.Total.StringFixed(2)))

	outcomes := RunRules(a.catalog, inv, pol, now)

	// Serialized section: read history, then append this invoice.
	a.mu.Lock()
	dupIssues, err := a.detector.Check(ctx, inv)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	summaryInput, summaryErr := a.store.All(ctx)
	if appendErr := a.detector.Remember(ctx, inv, now); appendErr != nil {
		a.mu.Unlock()
		return nil, appendErr
	}
	a.mu.Unlock()

	notes := append([]string(nil), inv.Notes...)

	var externalIssues []models.Issue
	if a.checker != nil {
		spendingSummary := ""
		if summaryErr == nil {
			spendingSummary = spendingHistorySummary(summaryInput)
		}
		externalIssues, err = a.runChecker(ctx, inv, spendingSummary)
		if err != nil {
			notes = append(notes, fmt.Sprintf("external analysis skipped: %v", err))
			a.logger.Warn("External anomaly checker failed, continuing without its issues",
				zap.String("invoice_id", inv.InvoiceID),
				zap.Error(err))
		}
	}

	result := &models.AuditResult{
		AuditID:     uuid.New().String(),
		InvoiceID:   inv.InvoiceID,
		Vendor:      inv.Vendor.Name,
		Total:       inv.Total,
		TotalRules:  len(outcomes),
		Notes:       notes,
		GeneratedAt: now,
	}

	// Fixed merge order: rule issues, duplicate issues, external.
	for _, outcome := range outcomes {
		result.RuleOutcomes = append(result.RuleOutcomes, outcome)
		if outcome.Passed {
			result.PassedRules++
		} else {
			result.FailedRules++
		}
		if outcome.Issue != nil {
			result.Issues = append(result.Issues, *outcome.Issue)
		}
	}
	result.Issues = append(result.Issues, dupIssues...)
	result.Issues = append(result.Issues, externalIssues...)

	for _, issue := range result.Issues {
		result.SeverityCounts.Add(issue.Severity)
	}
	result.IssuesFound = len(result.Issues) > 0
	result.Summary = buildSummary(inv.InvoiceID, result.Issues, result.SeverityCounts)

	a.logger.Info("Invoice audit completed",
		zap.String("invoice_id", inv.InvoiceID),
		zap.Int("issues", len(result.Issues)),
		zap.Int("failed_rules", result.FailedRules))

	return result, nil
}

// runChecker invokes the external checker under its timeout and
// recovers panics; an experimental integration must never take the
// audit down with it.
func (a *Auditor) runChecker(ctx context.Context, inv *models.Invoice, spendingSummary string) (issues []models.Issue, err error) {
	checkCtx := ctx
	if a.checkerTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(ctx, a.checkerTimeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			issues = nil
			err = fmt.Errorf("checker panicked: %v", p)
		}
	}()

	return a.checker.Check(checkCtx, inv, spendingSummary)
}

// spendingHistorySummary condenses recent history into the free-text
// summary the external checker receives.
func spendingHistorySummary(records []history.Record) string {
	if len(records) == 0 {
		return "No previously audited invoices."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d previously audited invoices. Most recent:\n", len(records))
	start := len(records) - 5
	if start < 0 {
		start = 0
	}
	for _, rec := range records[start:] {
		fmt.Fprintf(&b, "- %s from %s for %s on %s\n",
			rec.InvoiceID, rec.Vendor, rec.Total.StringFixed(2), rec.IssueDate.Format("2006-01-02"))
	}
	return b.String()
}

// buildSummary renders the deterministic summary sentence.
func buildSummary(invoiceID string, issues []models.Issue, counts models.SeverityTally) string {
	if len(issues) == 0 {
		return fmt.Sprintf("No issues found in invoice %s.", displayID(invoiceID))
	}

	var tier string
	switch {
	case counts.High > 0:
		tier = "Recommend immediate review due to high-priority issues."
	case counts.Medium > 0:
		tier = "Recommend review at earliest convenience."
	default:
		tier = "Minor issues detected, review when possible."
	}

	return fmt.Sprintf("Found %d issues in invoice %s (%d high, %d medium, %d low priority). %s",
		len(issues), displayID(invoiceID), counts.High, counts.Medium, counts.Low, tier)
}

func displayID(invoiceID string) string {
	if invoiceID == "" {
		return "UNKNOWN"
	}
	return invoiceID
}
