package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/auditly/invoice-auditor/internal/models"
)

// WriteExcel exports the audit result as an Excel workbook: a Summary
// sheet with the invoice identity and rule totals, and an Issues sheet
// with one row per issue.
func WriteExcel(result *models.AuditResult, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	summaryRows := [][]any{
		{"Invoice ID", orUnknown(result.InvoiceID)},
		{"Vendor", orUnknown(result.Vendor)},
		{"Total", result.Total.StringFixed(2)},
		{"Generated", result.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Summary", result.Summary},
		{"Total Rules", result.TotalRules},
		{"Passed Rules", result.PassedRules},
		{"Failed Rules", result.FailedRules},
		{"High Severity Issues", result.SeverityCounts.High},
		{"Medium Severity Issues", result.SeverityCounts.Medium},
		{"Low Severity Issues", result.SeverityCounts.Low},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}

	const issues = "Issues"
	if _, err := f.NewSheet(issues); err != nil {
		return fmt.Errorf("failed to create issues sheet: %w", err)
	}
	header := []any{"#", "Title", "Kind", "Severity", "Source", "Description", "Explanation", "Recommendation"}
	if err := f.SetSheetRow(issues, "A1", &header); err != nil {
		return fmt.Errorf("failed to write issues header: %w", err)
	}
	for i, issue := range result.Issues {
		row := []any{
			i + 1,
			issue.Title,
			string(issue.Kind),
			string(issue.Severity),
			string(issue.Source),
			issue.Description,
			issue.Explanation,
			issue.Recommendation,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(issues, cell, &row); err != nil {
			return fmt.Errorf("failed to write issue row: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save excel report: %w", err)
	}
	return nil
}
