// Package history stores previously audited invoices for duplicate
// detection. The store is append-only: the detector never removes
// entries.
package history

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/auditly/invoice-auditor/internal/models"
)

// Record is the slice of an audited invoice the duplicate detector
// needs: identity, normalized vendor, total and issue date.
type Record struct {
	InvoiceID   string          `json:"invoice_id"`
	Vendor      string          `json:"vendor"`
	Total       decimal.Decimal `json:"total"`
	IssueDate   time.Time       `json:"issue_date"`
	Fingerprint string          `json:"fingerprint"`
	AuditedAt   time.Time       `json:"audited_at"`
}

// NewRecord builds a history record from an audited invoice.
func NewRecord(inv *models.Invoice, auditedAt time.Time) Record {
	return Record{
		InvoiceID:   inv.InvoiceID,
		Vendor:      models.NormalizeVendorName(inv.Vendor.Name),
		Total:       inv.Total,
		IssueDate:   inv.IssueDate,
		Fingerprint: inv.Fingerprint(),
		AuditedAt:   auditedAt,
	}
}

// Store is the minimal append/iterate contract the duplicate detector
// depends on. An in-memory implementation backs tests; the sqlite
// implementation backs production use.
type Store interface {
	// Append adds one audited invoice to history.
	Append(ctx context.Context, rec Record) error
	// All returns every record in insertion order.
	All(ctx context.Context) ([]Record, error)
}
