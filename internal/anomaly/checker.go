// Package anomaly defines the external anomaly-checker capability and
// its OpenAI-backed implementation. The orchestrator depends only on
// the Checker interface; a failing or slow checker never aborts an
// audit.
package anomaly

import (
	"context"

	"github.com/auditly/invoice-auditor/internal/models"
)

// Checker is the pluggable anomaly-detection capability. It receives
// the canonical invoice and a free-text summary of recent spending
// history, and returns issues in the same schema the rule engine
// produces. Implementations must honor ctx cancellation; the caller
// bounds every invocation with a timeout.
type Checker interface {
	Check(ctx context.Context, inv *models.Invoice, spendingSummary string) ([]models.Issue, error)
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, inv *models.Invoice, spendingSummary string) ([]models.Issue, error)

// Check implements Checker.
func (f CheckerFunc) Check(ctx context.Context, inv *models.Invoice, spendingSummary string) ([]models.Issue, error) {
	return f(ctx, inv, spendingSummary)
}
