package report

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/auditly/invoice-auditor/internal/models"
)

var severityColors = map[models.Severity]string{
	models.SeverityLow:    "#28a745",
	models.SeverityMedium: "#ffc107",
	models.SeverityHigh:   "#dc3545",
}

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"severityColor": func(s models.Severity) string {
		if c, ok := severityColors[s]; ok {
			return c
		}
		return "#6c757d"
	},
	"upper":     strings.ToUpper,
	"orUnknown": orUnknown,
	"inc":       func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Invoice Audit Report</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 1200px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; border-bottom: 3px solid #dee2e6; margin-bottom: 30px; }
        .section { margin-bottom: 30px; border: 1px solid #dee2e6; border-radius: 5px; overflow: hidden; }
        .section-header { background-color: #f8f9fa; padding: 10px 15px; border-bottom: 1px solid #dee2e6; font-weight: bold; }
        .section-content { padding: 15px; }
        .info-table { width: 100%; border-collapse: collapse; }
        .info-table td { padding: 8px; border-bottom: 1px solid #dee2e6; }
        .info-table td:first-child { font-weight: bold; width: 200px; }
        .issue { margin-bottom: 20px; border-left: 5px solid #6c757d; padding-left: 15px; }
        .issue-title { font-weight: bold; font-size: 18px; }
        .severity-badge { padding: 5px 10px; border-radius: 3px; color: white; font-weight: bold; font-size: 12px; text-transform: uppercase; }
        .explanation { background-color: #f8f9fa; padding: 10px; border-radius: 3px; margin-top: 10px; }
        .recommendation { background-color: #e9ecef; padding: 10px; border-radius: 3px; margin-top: 10px; }
        .metrics { display: flex; justify-content: space-between; margin-bottom: 20px; }
        .metric { text-align: center; padding: 15px; background-color: #f8f9fa; border-radius: 5px; flex: 1; margin: 0 5px; }
        .metric-value { font-size: 24px; font-weight: bold; }
        .metric-label { font-size: 14px; color: #6c757d; }
        .footer { margin-top: 30px; text-align: center; font-size: 12px; color: #6c757d; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Invoice Audit Report</h1>
        <p>Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
    </div>

    <div class="section">
        <div class="section-header">Invoice Information</div>
        <div class="section-content">
            <table class="info-table">
                <tr><td>Invoice ID:</td><td>{{orUnknown .InvoiceID}}</td></tr>
                <tr><td>Vendor:</td><td>{{orUnknown .Vendor}}</td></tr>
                <tr><td>Total:</td><td>{{.Total.StringFixed 2}}</td></tr>
            </table>
        </div>
    </div>

    <div class="section">
        <div class="section-header">Audit Summary</div>
        <div class="section-content">
            <p>{{.Summary}}</p>
            <div class="metrics">
                <div class="metric">
                    <div class="metric-value">{{.TotalRules}}</div>
                    <div class="metric-label">Total Rules</div>
                </div>
                <div class="metric" style="color: #28a745;">
                    <div class="metric-value">{{.PassedRules}}</div>
                    <div class="metric-label">Passed Rules</div>
                </div>
                <div class="metric" style="color: #dc3545;">
                    <div class="metric-value">{{.FailedRules}}</div>
                    <div class="metric-label">Failed Rules</div>
                </div>
            </div>
        </div>
    </div>

{{if .Issues}}    <div class="section">
        <div class="section-header">Detailed Issues ({{len .Issues}})</div>
        <div class="section-content">
{{range $i, $issue := .Issues}}            <div class="issue" style="border-left-color: {{severityColor $issue.Severity}}">
                <div class="issue-title">Issue {{inc $i}}: {{$issue.Title}}</div>
                <span class="severity-badge" style="background-color: {{severityColor $issue.Severity}}">{{$issue.Severity}}</span>
                <p><strong>Source:</strong> {{$issue.Source}}</p>
                <p><strong>Description:</strong> {{$issue.Description}}</p>
                <div class="explanation"><strong>Explanation:</strong> <p>{{$issue.Explanation}}</p></div>
                <div class="recommendation"><strong>Recommendation:</strong> <p>{{$issue.Recommendation}}</p></div>
            </div>
{{end}}        </div>
    </div>
{{else}}    <div class="section">
        <div class="section-header">Issues</div>
        <div class="section-content">
            <p style="color: #28a745; font-weight: bold;">No issues found. The invoice appears to be valid.</p>
        </div>
    </div>
{{end}}{{if .Notes}}    <div class="section">
        <div class="section-header">Notes</div>
        <div class="section-content">
            <ul>
{{range .Notes}}                <li>{{.}}</li>
{{end}}            </ul>
        </div>
    </div>
{{end}}    <div class="footer">
        <p>Generated by Invoice Auditor</p>
    </div>
</body>
</html>
`))

func (r *Renderer) renderHTML(result *models.AuditResult) (string, error) {
	var b strings.Builder
	if err := htmlTemplate.Execute(&b, result); err != nil {
		return "", fmt.Errorf("failed to render HTML report: %w", err)
	}
	return b.String(), nil
}
