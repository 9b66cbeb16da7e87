package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VendorInfo holds the vendor block of an invoice. Only the name is
// required; everything else is best-effort from extraction.
type VendorInfo struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

// LineItem is a single line of an invoice, preserved in input order.
type LineItem struct {
	Description string          `json:"description"`
	Category    string          `json:"category,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice is the canonical, normalized representation of a billing
// document. It is constructed once (from OCR output or JSON) and is
// read-only input for the audit engine: no component mutates it after
// construction.
//
// Monetary fields are exact decimals. An empty InvoiceID is allowed;
// its absence is auditable rather than a construction failure.
type Invoice struct {
	InvoiceID string     `json:"invoice_id"`
	Vendor    VendorInfo `json:"vendor"`

	IssueDate time.Time  `json:"issue_date"`
	DueDate   *time.Time `json:"due_date,omitempty"`

	LineItems []LineItem `json:"line_items"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`

	OCRConfidence float64 `json:"ocr_confidence,omitempty"`
	SourceFile    string  `json:"source_file,omitempty"`

	// Notes records non-fatal normalization degradations (substituted
	// dates, defaulted amounts). They surface in the audit summary, not
	// as errors.
	Notes []string `json:"notes,omitempty"`
}

// LineItemsTotal returns the sum of quantity x unit price over all line
// items. The value is used only to cross-validate the stated subtotal,
// never substituted for it.
func (inv *Invoice) LineItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range inv.LineItems {
		sum = sum.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return sum
}

// Fingerprint returns a stable content hash over the fields that
// identify an invoice for duplicate detection: id, normalized vendor
// name, total and issue date.
func (inv *Invoice) Fingerprint() string {
	input := fmt.Sprintf("%s-%s-%s-%s",
		inv.InvoiceID,
		NormalizeVendorName(inv.Vendor.Name),
		inv.Total.StringFixed(2),
		inv.IssueDate.Format("2006-01-02"),
	)
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// NormalizeVendorName lowercases a vendor name and collapses internal
// whitespace so fuzzy duplicate comparison is insensitive to OCR
// spacing artifacts.
func NormalizeVendorName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
