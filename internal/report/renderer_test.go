package report

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/models"
)

func sampleResult() *models.AuditResult {
	return &models.AuditResult{
		AuditID:     "0b69bd3e-93cc-4f3a-a1e5-1f8d56f3f2a0",
		InvoiceID:   "INV-2023-001",
		Vendor:      "Acme Corp",
		Total:       decimal.RequireFromString("7020.00"),
		TotalRules:  8,
		PassedRules: 7,
		FailedRules: 1,
		RuleOutcomes: []models.RuleOutcome{
			{RuleName: "total_matches_calculation", Passed: true, Message: "ok"},
			{RuleName: "max_amount", Passed: false, Message: "Invoice total (7020.00) exceeds maximum allowed amount (5000.00)"},
		},
		IssuesFound: true,
		Issues: []models.Issue{
			{
				Kind:           models.KindMaxAmountExceeded,
				Title:          "Maximum Amount Exceeded",
				Description:    "Invoice total (7020.00) exceeds maximum allowed amount (5000.00)",
				Explanation:    "The invoice total exceeds the maximum allowed amount for this type of expense.",
				Recommendation: "Verify if proper authorization was obtained for this expense.",
				Severity:       models.SeverityHigh,
				Source:         models.SourceRuleEngine,
			},
		},
		SeverityCounts: models.SeverityTally{High: 1},
		Summary:        "Found 1 issues in invoice INV-2023-001 (1 high, 0 medium, 0 low priority). Recommend immediate review due to high-priority issues.",
		Notes:          []string{"due_date \"soon\" unparsable, dropped"},
		GeneratedAt:    time.Date(2023, 8, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "TEXT", "json", "html", "Html"} {
		_, err := ParseFormat(name)
		assert.NoError(t, err, name)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}

func TestRenderTextSections(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())

	out, err := renderer.Render(sampleResult(), FormatText)
	require.NoError(t, err)

	for _, section := range []string{
		"INVOICE AUDIT REPORT",
		"INVOICE INFORMATION",
		"AUDIT SUMMARY",
		"RULE-BASED AUDIT RESULTS",
		"DETAILED ISSUES",
		"NOTES",
		"End of Report",
	} {
		assert.Contains(t, out, section)
	}

	assert.Contains(t, out, "Invoice ID: INV-2023-001")
	assert.Contains(t, out, "Total: 7020.00")
	assert.Contains(t, out, "ISSUE 1: Maximum Amount Exceeded")
	assert.Contains(t, out, "Severity: HIGH")
	assert.Contains(t, out, "Source: rule_engine")
}

func TestRenderTextNoIssues(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())

	result := sampleResult()
	result.Issues = nil
	result.IssuesFound = false
	result.Notes = nil

	out, err := renderer.Render(result, FormatText)
	require.NoError(t, err)
	assert.Contains(t, out, "No issues found. The invoice appears to be valid.")
	assert.NotContains(t, out, "DETAILED ISSUES")
	assert.NotContains(t, out, "NOTES")
}

func TestRenderTextUnknownFields(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())

	result := sampleResult()
	result.InvoiceID = ""
	result.Vendor = ""

	out, err := renderer.Render(result, FormatText)
	require.NoError(t, err)
	assert.Contains(t, out, "Invoice ID: UNKNOWN")
	assert.Contains(t, out, "Vendor: UNKNOWN")
}

func TestJSONRoundTripReproducesReports(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())
	original := sampleResult()

	rendered, err := renderer.Render(original, FormatJSON)
	require.NoError(t, err)

	parsed, err := ParseJSON([]byte(rendered))
	require.NoError(t, err)

	// Every format reproduces byte for byte from the parsed result.
	for _, format := range []Format{FormatText, FormatHTML, FormatJSON} {
		want, err := renderer.Render(original, format)
		require.NoError(t, err)
		got, err := renderer.Render(parsed, format)
		require.NoError(t, err)
		assert.Equal(t, want, got, "format %s", format)
	}

	// Exact decimal values survive the round trip.
	assert.True(t, parsed.Total.Equal(original.Total))
	assert.Equal(t, original.Total.StringFixed(2), parsed.Total.StringFixed(2))
}

func TestRenderJSONIsValidJSON(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())

	out, err := renderer.Render(sampleResult(), FormatJSON)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "INV-2023-001", decoded["invoice_id"])
	assert.Equal(t, true, decoded["issues_found"])
}

func TestRenderHTML(t *testing.T) {
	renderer := NewRenderer(zap.NewNop())

	out, err := renderer.Render(sampleResult(), FormatHTML)
	require.NoError(t, err)

	assert.True(t, strings.Contains(out, "<!DOCTYPE html>") || strings.Contains(out, "<html"))
	assert.Contains(t, out, "INV-2023-001")
	assert.Contains(t, out, "Maximum Amount Exceeded")
}

func TestParseJSONRejectsGarbage(t *testing.T) {
	_, err := ParseJSON([]byte("not json"))
	assert.Error(t, err)
}
