package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeVendorName(t *testing.T) {
	assert.Equal(t, "tech solutions ltd.", NormalizeVendorName("Tech Solutions Ltd."))
	assert.Equal(t, "tech solutions ltd.", NormalizeVendorName("  TECH   Solutions\tLtd.  "))
	assert.Equal(t, "", NormalizeVendorName("   "))
}

func TestFingerprintStable(t *testing.T) {
	date := time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC)

	a := &Invoice{
		InvoiceID: "INV-100",
		Vendor:    VendorInfo{Name: "Tech Solutions Ltd."},
		Total:     decimal.RequireFromString("2450.00"),
		IssueDate: date,
	}
	b := &Invoice{
		InvoiceID: "INV-100",
		Vendor:    VendorInfo{Name: "tech  solutions ltd."},
		Total:     decimal.RequireFromString("2450"),
		IssueDate: date,
	}

	// Vendor case/spacing and decimal trailing zeros do not change identity.
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.Total = decimal.RequireFromString("2450.01")
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestLineItemsTotal(t *testing.T) {
	inv := &Invoice{
		LineItems: []LineItem{
			{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("10.50")},
			{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("4.25")},
		},
	}
	assert.Equal(t, "25.25", inv.LineItemsTotal().StringFixed(2))

	empty := &Invoice{}
	assert.True(t, empty.LineItemsTotal().IsZero())
}
