// Package policy holds the canonical spending-policy model and its
// loaders. A Policy is loaded once, is immutable for the duration of an
// audit, and may be swapped per vendor.
package policy

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// DateRules constrains how old an invoice may be at audit time.
type DateRules struct {
	MaxAgeDays *int `json:"max_age_days,omitempty"`
}

// Policy is a set of configurable spending and category rules an
// invoice is checked against. Every field is optional: an absent field
// disables the corresponding rule, which is then counted as passed so
// rule totals stay comparable across policies.
type Policy struct {
	MaxAmount           *decimal.Decimal           `json:"max_amount,omitempty"`
	AllowedCategories   []string                   `json:"allowed_categories,omitempty"`
	ForbiddenCategories []string                   `json:"forbidden_categories,omitempty"`
	MaxItemPrices       map[string]decimal.Decimal `json:"max_item_prices,omitempty"`
	DateRules           DateRules                  `json:"date_rules"`
	TaxRate             *decimal.Decimal           `json:"tax_rate,omitempty"`
}

// CategoryAllowed reports whether a line-item category passes the
// allowed/forbidden sets. Comparison is case-insensitive. A category
// absent from both sets is allowed by default; an empty category is
// never a violation.
func (p *Policy) CategoryAllowed(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return true
	}
	for _, f := range p.ForbiddenCategories {
		if strings.ToLower(f) == c {
			return false
		}
	}
	if len(p.AllowedCategories) == 0 {
		return true
	}
	for _, a := range p.AllowedCategories {
		if strings.ToLower(a) == c {
			return true
		}
	}
	return false
}

// MaxPriceFor returns the per-item ceiling for a category, if one is
// configured. Lookup is case-insensitive.
func (p *Policy) MaxPriceFor(category string) (decimal.Decimal, bool) {
	c := strings.ToLower(strings.TrimSpace(category))
	for k, v := range p.MaxItemPrices {
		if strings.ToLower(k) == c {
			return v, true
		}
	}
	return decimal.Zero, false
}

// LoadFile loads a policy from a JSON or CSV file, dispatching on the
// extension. A malformed policy file is a fatal load error: the
// orchestrator must not run rules against a policy it cannot parse.
func LoadFile(path string) (*Policy, error) {
	switch {
	case strings.HasSuffix(path, ".json"):
		return loadJSON(path)
	case strings.HasSuffix(path, ".csv"):
		return loadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported policy file format: %s", path)
	}
}

func loadJSON(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

// Parse parses a JSON policy definition.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return &p, nil
}

func (p *Policy) validate() error {
	if p.MaxAmount != nil && p.MaxAmount.Sign() < 0 {
		return fmt.Errorf("max_amount must not be negative")
	}
	for category, price := range p.MaxItemPrices {
		if price.Sign() < 0 {
			return fmt.Errorf("max_item_prices[%s] must not be negative", category)
		}
	}
	if p.DateRules.MaxAgeDays != nil && *p.DateRules.MaxAgeDays < 0 {
		return fmt.Errorf("date_rules.max_age_days must not be negative")
	}
	if p.TaxRate != nil && (p.TaxRate.Sign() < 0 || p.TaxRate.GreaterThan(decimal.NewFromInt(1))) {
		return fmt.Errorf("tax_rate must be between 0 and 1")
	}
	return nil
}

// loadCSV loads a policy from key,value rows. List values are
// semicolon-separated; per-category ceilings use "max_item_price.<cat>".
func loadCSV(path string) (*Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy CSV: %w", err)
	}

	p := &Policy{MaxItemPrices: map[string]decimal.Decimal{}}
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.TrimSpace(strings.ToLower(row[0]))
		value := strings.TrimSpace(row[1])
		if i == 0 && key == "key" {
			continue // header row
		}

		switch {
		case key == "max_amount":
			d, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid max_amount %q", i+1, value)
			}
			p.MaxAmount = &d
		case key == "allowed_categories":
			p.AllowedCategories = splitList(value)
		case key == "forbidden_categories":
			p.ForbiddenCategories = splitList(value)
		case key == "max_age_days":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid max_age_days %q", i+1, value)
			}
			p.DateRules.MaxAgeDays = &n
		case key == "tax_rate":
			d, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid tax_rate %q", i+1, value)
			}
			p.TaxRate = &d
		case strings.HasPrefix(key, "max_item_price."):
			category := strings.TrimPrefix(key, "max_item_price.")
			d, err := decimal.NewFromString(value)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid price for category %q", i+1, category)
			}
			p.MaxItemPrices[category] = d
		default:
			return nil, fmt.Errorf("row %d: unknown policy key %q", i+1, row[0])
		}
	}

	if len(p.MaxItemPrices) == 0 {
		p.MaxItemPrices = nil
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	return p, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
