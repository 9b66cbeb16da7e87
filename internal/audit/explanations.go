package audit

import "github.com/auditly/invoice-auditor/internal/models"

// issueText is the fixed title/explanation/recommendation attached to
// each issue kind. The wording is deterministic so identical input
// always yields byte-identical reports.
type issueText struct {
	title          string
	explanation    string
	recommendation string
	severity       models.Severity
}

var issueTexts = map[models.IssueKind]issueText{
	models.KindCalculationError: {
		title:          "Total Calculation Error",
		explanation:    "The invoice total doesn't match the sum of subtotal and tax. This could indicate a calculation error, intentional manipulation, or a simple mistake in arithmetic.",
		recommendation: "Verify all calculations and request a corrected invoice if necessary.",
		severity:       models.SeverityMedium,
	},
	models.KindLineItemSumError: {
		title:          "Line Item Sum Error",
		explanation:    "The sum of the line item amounts doesn't match the invoice subtotal. This could indicate an omitted or altered line item, or an error when the invoice was prepared.",
		recommendation: "Reconcile the individual line items against the subtotal and request an itemized correction from the vendor.",
		severity:       models.SeverityMedium,
	},
	models.KindMaxAmountExceeded: {
		title:          "Maximum Amount Exceeded",
		explanation:    "The invoice total exceeds the maximum allowed amount for this type of expense. This could indicate unauthorized spending or a purchase that requires additional approval.",
		recommendation: "Verify if proper authorization was obtained for this expense and check if it should have been processed through a different procurement channel.",
		severity:       models.SeverityHigh,
	},
	models.KindItemPriceExceeded: {
		title:          "Item Price Limit Exceeded",
		explanation:    "One or more items exceed the maximum allowed price for their category. This could indicate premium purchases that require special approval.",
		recommendation: "Verify if the items with excessive prices were authorized and if they represent the best value for the organization.",
		severity:       models.SeverityMedium,
	},
	models.KindCategoryViolation: {
		title:          "Unauthorized Expense Category",
		explanation:    "The invoice contains expense categories that are not authorized by company policy. This could indicate an attempt to categorize expenses incorrectly to bypass spending controls.",
		recommendation: "Review the expense categorization and determine if it's appropriate or if the expense should be rejected.",
		severity:       models.SeverityMedium,
	},
	models.KindFutureDate: {
		title:          "Future-Dated Invoice",
		explanation:    "The invoice date is in the future. Future-dated invoices may indicate an attempt to manipulate payment timing.",
		recommendation: "Verify the correct date with the vendor and ensure it complies with your organization's invoice dating policies.",
		severity:       models.SeverityHigh,
	},
	models.KindStaleInvoice: {
		title:          "Invoice Exceeds Age Limit",
		explanation:    "The invoice is older than the recency limit set by policy. Very old invoices might be submitted late to bypass fiscal year controls.",
		recommendation: "Confirm why the invoice was submitted late and whether it falls within the correct accounting period.",
		severity:       models.SeverityLow,
	},
	models.KindTaxRateMismatch: {
		title:          "Unexpected Tax Rate",
		explanation:    "The tax charged on the invoice does not match the tax rate expected by policy. This could indicate a miscalculated tax amount or an incorrect rate applied by the vendor.",
		recommendation: "Recompute the expected tax from the subtotal and request a corrected invoice if the rate is wrong.",
		severity:       models.SeverityLow,
	},
	models.KindDuplicateInvoice: {
		title:          "Potential Duplicate Invoice",
		explanation:    "This invoice appears to be a duplicate of a previously processed invoice. Processing duplicates can lead to double payments.",
		recommendation: "Compare with the suspected duplicate invoice and verify with the vendor if this is a new charge or a duplicate submission.",
		severity:       models.SeverityHigh,
	},
	models.KindExternalAnomaly: {
		title:          "AI-Detected Anomaly",
		explanation:    "The external analyzer detected an unusual pattern in this invoice that doesn't match typical vendor behavior or company spending patterns.",
		recommendation: "Review the specific details of the anomaly and investigate further if necessary.",
		severity:       models.SeverityMedium,
	},
}

// newIssue builds an Issue of the given kind with its fixed severity,
// title, explanation and recommendation, and the supplied description.
func newIssue(kind models.IssueKind, description string) models.Issue {
	text := issueTexts[kind]
	return models.Issue{
		Kind:           kind,
		Title:          text.title,
		Description:    description,
		Explanation:    text.explanation,
		Recommendation: text.recommendation,
		Severity:       text.severity,
	}
}
