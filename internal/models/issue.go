package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Severity is the ordered severity level of an issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns the numeric order of a severity, higher is worse.
// Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// IssueKind discriminates the category of a detected problem.
type IssueKind string

const (
	KindCalculationError  IssueKind = "calculation_error"
	KindLineItemSumError  IssueKind = "line_item_sum_error"
	KindMaxAmountExceeded IssueKind = "max_amount_exceeded"
	KindItemPriceExceeded IssueKind = "item_price_exceeded"
	KindCategoryViolation IssueKind = "category_violation"
	KindFutureDate        IssueKind = "future_date"
	KindStaleInvoice      IssueKind = "stale_invoice"
	KindTaxRateMismatch   IssueKind = "tax_rate_mismatch"
	KindDuplicateInvoice  IssueKind = "duplicate_invoice"
	KindExternalAnomaly   IssueKind = "external_anomaly"
)

// IssueSource identifies the subsystem that produced an issue.
type IssueSource string

const (
	SourceRuleEngine        IssueSource = "rule_engine"
	SourceDuplicateDetector IssueSource = "duplicate_detector"
	SourceExternalAnomaly   IssueSource = "external_anomaly"
)

// Issue is a single detected problem. Description, Explanation and
// Recommendation are generated deterministically from the triggering
// values and are stable across runs for identical input.
type Issue struct {
	Kind           IssueKind   `json:"kind"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Explanation    string      `json:"explanation"`
	Recommendation string      `json:"recommendation"`
	Severity       Severity    `json:"severity"`
	Source         IssueSource `json:"source"`
}

// SeverityTally counts failed checks by severity.
type SeverityTally struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Add increments the bucket for the given severity.
func (t *SeverityTally) Add(s Severity) {
	switch s {
	case SeverityHigh:
		t.High++
	case SeverityMedium:
		t.Medium++
	case SeverityLow:
		t.Low++
	}
}

// Total returns the number of tallied issues.
func (t SeverityTally) Total() int { return t.High + t.Medium + t.Low }

// RuleOutcome is the result of evaluating one rule against one invoice.
// Issue is nil when the rule passed.
type RuleOutcome struct {
	RuleName string `json:"rule_name"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
	Issue    *Issue `json:"issue,omitempty"`
}

// AuditResult aggregates everything one audit produced.
//
// Invariants: FailedRules+PassedRules == TotalRules, and IssuesFound
// is true exactly when Issues is non-empty.
type AuditResult struct {
	AuditID   string          `json:"audit_id"`
	InvoiceID string          `json:"invoice_id"`
	Vendor    string          `json:"vendor"`
	Total     decimal.Decimal `json:"total"`

	TotalRules   int           `json:"total_rules"`
	PassedRules  int           `json:"passed_rules"`
	FailedRules  int           `json:"failed_rules"`
	RuleOutcomes []RuleOutcome `json:"rule_outcomes"`

	IssuesFound    bool          `json:"issues_found"`
	Issues         []Issue       `json:"issues"`
	SeverityCounts SeverityTally `json:"severity_counts"`

	Summary     string    `json:"summary"`
	Notes       []string  `json:"notes,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
