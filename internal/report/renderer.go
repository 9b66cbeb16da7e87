// Package report renders an AuditResult into its output formats. JSON
// is the canonical machine-readable form; text and HTML are derived,
// human-oriented views of the same facts.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/models"
)

// Format selects the report output format.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported report format: %q", s)
}

// Renderer turns audit results into reports. Rendering is pure: no
// I/O beyond the returned string.
type Renderer struct {
	logger *zap.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// Render serializes the result in the requested format. All formats
// carry the same facts; only presentation differs.
func (r *Renderer) Render(result *models.AuditResult, format Format) (string, error) {
	switch format {
	case FormatText:
		return r.renderText(result), nil
	case FormatHTML:
		return r.renderHTML(result)
	case FormatJSON:
		return r.renderJSON(result), nil
	}
	return "", fmt.Errorf("unsupported report format: %q", format)
}

// renderJSON produces the canonical form. A marshal failure is caught
// at this boundary and degraded to a best-effort representation
// instead of aborting report generation.
func (r *Renderer) renderJSON(result *models.AuditResult) string {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		r.logger.Error("Failed to serialize audit result, falling back to string form",
			zap.String("invoice_id", result.InvoiceID),
			zap.Error(err))
		return fmt.Sprintf("{\n  \"invoice_id\": %q,\n  \"summary\": %q,\n  \"serialization_error\": %q\n}",
			result.InvoiceID, result.Summary, err.Error())
	}
	return string(data)
}

// ParseJSON reconstructs an AuditResult from its canonical JSON form.
// Re-rendering the parsed result in any format reproduces the
// original report.
func ParseJSON(data []byte) (*models.AuditResult, error) {
	var result models.AuditResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse audit report: %w", err)
	}
	return &result, nil
}

const textRule = "================================================================================"
const textSep = "--------------------------------------------------------------------------------"

func (r *Renderer) renderText(result *models.AuditResult) string {
	var b strings.Builder

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line(textRule)
	line("INVOICE AUDIT REPORT")
	line(textRule)
	line("Generated: %s", result.GeneratedAt.Format("2006-01-02 15:04:05"))
	line("")

	line("INVOICE INFORMATION")
	line(textSep)
	line("Invoice ID: %s", orUnknown(result.InvoiceID))
	line("Vendor: %s", orUnknown(result.Vendor))
	line("Total: %s", result.Total.StringFixed(2))
	line("")

	line("AUDIT SUMMARY")
	line(textSep)
	line("%s", result.Summary)
	line("")

	line("RULE-BASED AUDIT RESULTS")
	line(textSep)
	line("Total Rules: %d", result.TotalRules)
	line("Passed Rules: %d", result.PassedRules)
	line("Failed Rules: %d", result.FailedRules)
	line("")

	if len(result.Issues) > 0 {
		line("DETAILED ISSUES")
		line(textSep)
		line("Found %d issues:", len(result.Issues))
		line("")

		for i, issue := range result.Issues {
			line("ISSUE %d: %s", i+1, issue.Title)
			line("Severity: %s", strings.ToUpper(string(issue.Severity)))
			line("Source: %s", issue.Source)
			line("Description: %s", issue.Description)
			line("")
			line("Explanation:")
			line("%s", issue.Explanation)
			line("")
			line("Recommendation:")
			line("%s", issue.Recommendation)
			line(textSep)
		}
	} else {
		line("No issues found. The invoice appears to be valid.")
	}

	if len(result.Notes) > 0 {
		line("")
		line("NOTES")
		line(textSep)
		for _, note := range result.Notes {
			line("- %s", note)
		}
	}

	line("")
	line("End of Report")
	line(textRule)

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}
