package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RawValue is a field value as delivered by an OCR backend. Extraction
// output is loosely typed: amounts arrive as strings with currency
// symbols, bare numbers, or not at all. RawValue accepts both JSON
// strings and numbers and preserves them verbatim for normalization.
type RawValue string

// UnmarshalJSON accepts a JSON string, number, or null.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*v = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("field is neither string nor number: %w", err)
	}
	*v = RawValue(n.String())
	return nil
}

func (v RawValue) String() string { return string(v) }

// IsEmpty reports whether the field was missing or blank.
func (v RawValue) IsEmpty() bool { return strings.TrimSpace(string(v)) == "" }

// ExtractedLineItem is one line item as emitted by the OCR boundary.
type ExtractedLineItem struct {
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Quantity    RawValue `json:"quantity"`
	Price       RawValue `json:"price"`
}

// ExtractedData is the contract between the OCR backends
// (Tesseract/Textract) and the audit core: a mapping of recognized
// field names to raw values, plus a confidence indicator and the raw
// extracted text for debugging. Any key may be missing.
type ExtractedData struct {
	InvoiceID  RawValue            `json:"invoice_id"`
	Vendor     RawValue            `json:"vendor"`
	Date       RawValue            `json:"date"`
	DueDate    RawValue            `json:"due_date"`
	Subtotal   RawValue            `json:"subtotal"`
	Tax        RawValue            `json:"tax"`
	Total      RawValue            `json:"total"`
	Currency   RawValue            `json:"currency"`
	LineItems  []ExtractedLineItem `json:"line_items"`
	Confidence float64             `json:"confidence"`
	RawText    string              `json:"raw_text"`
	SourceFile string              `json:"source_file"`
}

// ToInvoice normalizes extracted data into a canonical Invoice. It
// never fails: every anomaly becomes a default value plus a recorded
// note, so downstream auditing is never blocked by a bad extraction.
// now supplies the fallback for an unparsable issue date.
func (d ExtractedData) ToInvoice(now time.Time, logger *zap.Logger) *Invoice {
	var notes []string

	inv := &Invoice{
		InvoiceID: strings.TrimSpace(d.InvoiceID.String()),
		Vendor: VendorInfo{
			Name: strings.TrimSpace(d.Vendor.String()),
		},
		Currency:      strings.TrimSpace(d.Currency.String()),
		OCRConfidence: d.Confidence,
		SourceFile:    d.SourceFile,
	}
	if inv.Currency == "" {
		inv.Currency = "USD"
	}
	if inv.InvoiceID == "" {
		notes = append(notes, "invoice_id missing from extracted data")
	}
	if inv.Vendor.Name == "" {
		notes = append(notes, "vendor name missing from extracted data")
	}

	// Issue date falls back to today; substitution is an explicit,
	// logged degradation rather than a silent default.
	if d.Date.IsEmpty() {
		inv.IssueDate = now
		notes = append(notes, "issue_date missing, substituted audit date")
		logger.Warn("Invoice missing issue date, substituting audit date",
			zap.String("invoice_id", inv.InvoiceID))
	} else if parsed, err := ParseDate(d.Date.String()); err != nil {
		inv.IssueDate = now
		notes = append(notes, fmt.Sprintf("issue_date %q unparsable, substituted audit date", d.Date))
		logger.Warn("Failed to parse issue date, substituting audit date",
			zap.String("invoice_id", inv.InvoiceID),
			zap.String("raw_date", d.Date.String()),
			zap.Error(err))
	} else {
		inv.IssueDate = parsed
	}

	if !d.DueDate.IsEmpty() {
		if parsed, err := ParseDate(d.DueDate.String()); err == nil {
			inv.DueDate = &parsed
		} else {
			notes = append(notes, fmt.Sprintf("due_date %q unparsable, dropped", d.DueDate))
		}
	}

	amount := func(field string, v RawValue) decimal.Decimal {
		if v.IsEmpty() {
			notes = append(notes, fmt.Sprintf("%s missing, defaulted to 0.00", field))
			return decimal.Zero
		}
		dec, err := ParseAmount(v.String())
		if err != nil {
			notes = append(notes, fmt.Sprintf("%s %q unparsable, defaulted to 0.00", field, v))
			logger.Warn("Failed to parse monetary field",
				zap.String("invoice_id", inv.InvoiceID),
				zap.String("field", field),
				zap.String("raw", v.String()),
				zap.Error(err))
			return decimal.Zero
		}
		return dec
	}

	inv.Subtotal = amount("subtotal", d.Subtotal)
	inv.Tax = amount("tax", d.Tax)
	inv.Total = amount("total", d.Total)

	for i, raw := range d.LineItems {
		item := LineItem{
			Description: strings.TrimSpace(raw.Description),
			Category:    strings.TrimSpace(raw.Category),
		}
		if item.Description == "" {
			item.Description = "Unknown Item"
		}

		qty, err := ParseAmount(raw.Quantity.String())
		if err != nil || qty.Sign() <= 0 {
			qty = decimal.NewFromInt(1)
			notes = append(notes, fmt.Sprintf("line item %d quantity %q invalid, defaulted to 1", i+1, raw.Quantity))
		}
		price, err := ParseAmount(raw.Price.String())
		if err != nil || price.Sign() < 0 {
			price = decimal.Zero
			notes = append(notes, fmt.Sprintf("line item %d price %q invalid, defaulted to 0.00", i+1, raw.Price))
		}

		item.Quantity = qty
		item.UnitPrice = price
		item.Amount = qty.Mul(price)
		inv.LineItems = append(inv.LineItems, item)
	}

	inv.Notes = notes
	return inv
}
