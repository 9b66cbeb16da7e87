// Package audit implements the rule-based audit engine: the fixed rule
// catalog, duplicate detection against invoice history, and the
// orchestrator that merges everything into an AuditResult.
package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/auditly/invoice-auditor/internal/models"
	"github.com/auditly/invoice-auditor/internal/policy"
)

// amountTolerance absorbs rounding on monetary comparisons: one cent.
var amountTolerance = decimal.RequireFromString("0.01")

// taxRateTolerance bounds deviation of the effective tax rate from the
// policy rate before flagging.
var taxRateTolerance = decimal.RequireFromString("0.005")

// RuleFunc is a single verification rule: a pure function of the
// invoice, the policy and the audit time. Rules share no state and may
// run in any order; the engine preserves catalog order in its output.
type RuleFunc func(inv *models.Invoice, pol *policy.Policy, now time.Time) models.RuleOutcome

// Rule pairs a stable rule name with its check.
type Rule struct {
	Name  string
	Check RuleFunc
}

// Catalog returns the fixed, ordered rule catalog. Every rule always
// runs; a rule whose policy parameter is absent passes rather than
// being skipped, so pass/fail totals are comparable across policies.
// New rules are added by appending registry entries, not by subtyping.
func Catalog() []Rule {
	return []Rule{
		{Name: "total_matches_calculation", Check: checkTotalMatchesCalculation},
		{Name: "line_items_sum", Check: checkLineItemsSum},
		{Name: "max_amount", Check: checkMaxAmount},
		{Name: "max_item_price", Check: checkMaxItemPrice},
		{Name: "allowed_categories", Check: checkAllowedCategories},
		{Name: "future_date", Check: checkFutureDate},
		{Name: "max_age", Check: checkMaxAge},
		{Name: "tax_rate_check", Check: checkTaxRate},
	}
}

// RunRules evaluates every rule in the catalog against the invoice.
// There is no short-circuiting: a single call can surface multiple
// simultaneous failures.
func RunRules(catalog []Rule, inv *models.Invoice, pol *policy.Policy, now time.Time) []models.RuleOutcome {
	outcomes := make([]models.RuleOutcome, 0, len(catalog))
	for _, rule := range catalog {
		outcome := rule.Check(inv, pol, now)
		outcome.RuleName = rule.Name
		if outcome.Issue != nil {
			outcome.Issue.Source = models.SourceRuleEngine
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func pass(message string) models.RuleOutcome {
	return models.RuleOutcome{Passed: true, Message: message}
}

func fail(issue models.Issue) models.RuleOutcome {
	return models.RuleOutcome{Passed: false, Message: issue.Description, Issue: &issue}
}

func checkTotalMatchesCalculation(inv *models.Invoice, _ *policy.Policy, _ time.Time) models.RuleOutcome {
	// A zero value means the extraction defaulted the field; the
	// missing-field notes already cover that case.
	if inv.Subtotal.IsZero() || inv.Total.IsZero() {
		return pass("skipped: subtotal or total not present")
	}

	expected := inv.Subtotal.Add(inv.Tax)
	if expected.Sub(inv.Total).Abs().LessThanOrEqual(amountTolerance) {
		return pass(fmt.Sprintf("total (%s) matches subtotal (%s) + tax (%s)",
			inv.Total.StringFixed(2), inv.Subtotal.StringFixed(2), inv.Tax.StringFixed(2)))
	}

	return fail(newIssue(models.KindCalculationError,
		fmt.Sprintf("Invoice total (%s) doesn't match subtotal (%s) + tax (%s) = %s",
			inv.Total.StringFixed(2), inv.Subtotal.StringFixed(2),
			inv.Tax.StringFixed(2), expected.StringFixed(2))))
}

func checkLineItemsSum(inv *models.Invoice, _ *policy.Policy, _ time.Time) models.RuleOutcome {
	if len(inv.LineItems) == 0 || inv.Subtotal.IsZero() {
		return pass("skipped: no line items or subtotal not present")
	}

	lineSum := inv.LineItemsTotal()
	if lineSum.Sub(inv.Subtotal).Abs().LessThanOrEqual(amountTolerance) {
		return pass(fmt.Sprintf("line items sum (%s) matches subtotal (%s)",
			lineSum.StringFixed(2), inv.Subtotal.StringFixed(2)))
	}

	return fail(newIssue(models.KindLineItemSumError,
		fmt.Sprintf("Line items sum (%s) doesn't match invoice subtotal (%s)",
			lineSum.StringFixed(2), inv.Subtotal.StringFixed(2))))
}

func checkMaxAmount(inv *models.Invoice, pol *policy.Policy, _ time.Time) models.RuleOutcome {
	if pol.MaxAmount == nil {
		return pass("no max_amount configured")
	}
	if inv.Total.LessThanOrEqual(*pol.MaxAmount) {
		return pass(fmt.Sprintf("total (%s) within allowed limit (%s)",
			inv.Total.StringFixed(2), pol.MaxAmount.StringFixed(2)))
	}
	return fail(newIssue(models.KindMaxAmountExceeded,
		fmt.Sprintf("Invoice total (%s) exceeds maximum allowed amount (%s)",
			inv.Total.StringFixed(2), pol.MaxAmount.StringFixed(2))))
}

func checkMaxItemPrice(inv *models.Invoice, pol *policy.Policy, _ time.Time) models.RuleOutcome {
	if len(pol.MaxItemPrices) == 0 {
		return pass("no max_item_prices configured")
	}

	var violations []string
	for _, item := range inv.LineItems {
		ceiling, ok := pol.MaxPriceFor(item.Category)
		if !ok {
			continue
		}
		if item.UnitPrice.GreaterThan(ceiling) {
			violations = append(violations, fmt.Sprintf("%s (%s > %s)",
				item.Description, item.UnitPrice.StringFixed(2), ceiling.StringFixed(2)))
		}
	}

	if len(violations) == 0 {
		return pass("all line items within category price limits")
	}
	return fail(newIssue(models.KindItemPriceExceeded,
		"Line items exceed maximum price for their category: "+strings.Join(violations, ", ")))
}

func checkAllowedCategories(inv *models.Invoice, pol *policy.Policy, _ time.Time) models.RuleOutcome {
	if len(pol.AllowedCategories) == 0 && len(pol.ForbiddenCategories) == 0 {
		return pass("no category restrictions configured")
	}

	seen := map[string]bool{}
	var disallowed []string
	for _, item := range inv.LineItems {
		c := strings.ToLower(strings.TrimSpace(item.Category))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if !pol.CategoryAllowed(item.Category) {
			disallowed = append(disallowed, c)
		}
	}

	if len(disallowed) == 0 {
		return pass("all line item categories are allowed")
	}
	return fail(newIssue(models.KindCategoryViolation,
		"Invoice contains unauthorized categories: "+strings.Join(disallowed, ", ")))
}

func checkFutureDate(inv *models.Invoice, _ *policy.Policy, now time.Time) models.RuleOutcome {
	// Compare calendar days so an invoice dated today never reads as
	// future when the audit clock sits in a zone ahead of the issue date.
	iy, im, id := inv.IssueDate.Date()
	ny, nm, nd := now.Date()
	issueDay := time.Date(iy, im, id, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	if !issueDay.After(today) {
		return pass(fmt.Sprintf("issue date %s is not in the future", inv.IssueDate.Format("2006-01-02")))
	}
	return fail(newIssue(models.KindFutureDate,
		fmt.Sprintf("Invoice date %s is in the future", inv.IssueDate.Format("2006-01-02"))))
}

func checkMaxAge(inv *models.Invoice, pol *policy.Policy, now time.Time) models.RuleOutcome {
	if pol.DateRules.MaxAgeDays == nil {
		return pass("no max_age_days configured")
	}
	maxAge := *pol.DateRules.MaxAgeDays
	age := int(now.Sub(inv.IssueDate).Hours() / 24)
	if age <= maxAge {
		return pass(fmt.Sprintf("invoice age %d days within limit of %d", age, maxAge))
	}
	return fail(newIssue(models.KindStaleInvoice,
		fmt.Sprintf("Invoice date %s is too old (%d days, limit %d)",
			inv.IssueDate.Format("2006-01-02"), age, maxAge)))
}

func checkTaxRate(inv *models.Invoice, pol *policy.Policy, _ time.Time) models.RuleOutcome {
	if pol.TaxRate == nil {
		return pass("no tax_rate configured")
	}
	if inv.Subtotal.IsZero() {
		return pass("skipped: subtotal not present")
	}

	effective := inv.Tax.Div(inv.Subtotal).Round(4)
	if effective.Sub(*pol.TaxRate).Abs().LessThanOrEqual(taxRateTolerance) {
		return pass(fmt.Sprintf("effective tax rate %s matches expected %s",
			effective.String(), pol.TaxRate.String()))
	}
	return fail(newIssue(models.KindTaxRateMismatch,
		fmt.Sprintf("Effective tax rate %s deviates from expected rate %s",
			effective.String(), pol.TaxRate.String())))
}
