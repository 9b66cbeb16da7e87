package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateFormats lists the input layouts the normalizer accepts, most
// common first. OCR output mixes ISO dates, US/EU slash dates and
// free-text month names.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"2-January-2006",
	"02-Jan-2006",
}

// ParseDate parses a date string in any of the supported invoice
// formats into a calendar date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date %q", s)
}

// ParseAmount parses a monetary value into an exact decimal. Currency
// symbols, thousands separators and surrounding whitespace are
// stripped first. Scientific notation is rejected: an exponent in an
// extracted amount is an OCR artifact, not a price.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', ',', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))

	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	if strings.ContainsAny(cleaned, "eE") {
		return decimal.Zero, fmt.Errorf("scientific notation not accepted in amount %q", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
