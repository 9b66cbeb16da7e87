package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/internal/history"
	"github.com/auditly/invoice-auditor/internal/models"
)

func TestDuplicateExactIDMatch(t *testing.T) {
	store := history.NewMemoryStore()
	detector := NewDuplicateDetector(store, zap.NewNop())
	ctx := context.Background()

	first := testInvoice()
	require.NoError(t, detector.Remember(ctx, first, auditTime))

	second := testInvoice()
	second.Total = dec("999.00")
	second.IssueDate = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	issues, err := detector.Check(ctx, second)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, models.KindDuplicateInvoice, issues[0].Kind)
	assert.Equal(t, models.SeverityHigh, issues[0].Severity)
	assert.Equal(t, models.SourceDuplicateDetector, issues[0].Source)
	assert.Contains(t, issues[0].Description, "INV-2023-001 already exists")
}

func TestDuplicateFuzzyMatch(t *testing.T) {
	store := history.NewMemoryStore()
	detector := NewDuplicateDetector(store, zap.NewNop())
	ctx := context.Background()

	first := &models.Invoice{
		InvoiceID: "INV-A",
		Vendor:    models.VendorInfo{Name: "Tech Solutions Ltd."},
		Total:     dec("2450.00"),
		IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, detector.Remember(ctx, first, auditTime))

	// Different id, same vendor modulo case and spacing, same amount,
	// same day.
	second := &models.Invoice{
		InvoiceID: "INV-B",
		Vendor:    models.VendorInfo{Name: "tech  solutions ltd."},
		Total:     dec("2450.00"),
		IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
	}

	issues, err := detector.Check(ctx, second)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Description, "Very similar to invoice INV-A")
}

func TestDuplicateFuzzyMatchIsSymmetric(t *testing.T) {
	ctx := context.Background()
	a := &models.Invoice{
		InvoiceID: "INV-A",
		Vendor:    models.VendorInfo{Name: "Tech Solutions Ltd."},
		Total:     dec("2450.00"),
		IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	b := &models.Invoice{
		InvoiceID: "INV-B",
		Vendor:    models.VendorInfo{Name: "Tech Solutions Ltd."},
		Total:     dec("2450.00"),
		IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
	}

	// A first, then B.
	det := NewDuplicateDetector(history.NewMemoryStore(), zap.NewNop())
	require.NoError(t, det.Remember(ctx, a, auditTime))
	issues, err := det.Check(ctx, b)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Description, "INV-A")

	// B first, then A.
	det = NewDuplicateDetector(history.NewMemoryStore(), zap.NewNop())
	require.NoError(t, det.Remember(ctx, b, auditTime))
	issues, err = det.Check(ctx, a)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Description, "INV-B")
}

func TestDuplicateFuzzyRequiresAllThree(t *testing.T) {
	store := history.NewMemoryStore()
	detector := NewDuplicateDetector(store, zap.NewNop())
	ctx := context.Background()

	base := &models.Invoice{
		InvoiceID: "INV-A",
		Vendor:    models.VendorInfo{Name: "Tech Solutions Ltd."},
		Total:     dec("2450.00"),
		IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, detector.Remember(ctx, base, auditTime))

	cases := map[string]*models.Invoice{
		"different vendor": {
			InvoiceID: "INV-B",
			Vendor:    models.VendorInfo{Name: "Other Vendor"},
			Total:     dec("2450.00"),
			IssueDate: base.IssueDate,
		},
		"different amount": {
			InvoiceID: "INV-B",
			Vendor:    base.Vendor,
			Total:     dec("2450.50"),
			IssueDate: base.IssueDate,
		},
		"different date": {
			InvoiceID: "INV-B",
			Vendor:    base.Vendor,
			Total:     dec("2450.00"),
			IssueDate: base.IssueDate.AddDate(0, 0, 1),
		},
	}
	for name, inv := range cases {
		t.Run(name, func(t *testing.T) {
			issues, err := detector.Check(ctx, inv)
			require.NoError(t, err)
			assert.Empty(t, issues)
		})
	}
}

func TestDuplicateAmountWithinOneCent(t *testing.T) {
	store := history.NewMemoryStore()
	detector := NewDuplicateDetector(store, zap.NewNop())
	ctx := context.Background()

	base := &models.Invoice{
		InvoiceID: "INV-A",
		Vendor:    models.VendorInfo{Name: "Acme"},
		Total:     dec("100.00"),
		IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, detector.Remember(ctx, base, auditTime))

	near := &models.Invoice{
		InvoiceID: "INV-B",
		Vendor:    base.Vendor,
		Total:     dec("100.01"),
		IssueDate: base.IssueDate,
	}
	issues, err := detector.Check(ctx, near)
	require.NoError(t, err)
	assert.Len(t, issues, 1)
}

func TestDuplicateEmptyHistoryIsClean(t *testing.T) {
	detector := NewDuplicateDetector(history.NewMemoryStore(), zap.NewNop())

	issues, err := detector.Check(context.Background(), testInvoice())
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestDuplicateEmptyIDNeverExactMatches(t *testing.T) {
	store := history.NewMemoryStore()
	detector := NewDuplicateDetector(store, zap.NewNop())
	ctx := context.Background()

	first := &models.Invoice{
		Vendor:    models.VendorInfo{Name: "Acme"},
		Total:     dec("10.00"),
		IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, detector.Remember(ctx, first, auditTime))

	second := &models.Invoice{
		Vendor:    models.VendorInfo{Name: "Different Co"},
		Total:     dec("20.00"),
		IssueDate: time.Date(2023, 7, 16, 0, 0, 0, 0, time.UTC),
	}
	issues, err := detector.Check(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, issues)
}
