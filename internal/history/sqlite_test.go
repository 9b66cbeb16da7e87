package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/auditly/invoice-auditor/pkg/database"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "history.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStore(db.DB, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := Record{
		InvoiceID:   "INV-2023-001",
		Vendor:      "tech solutions ltd.",
		Total:       decimal.RequireFromString("2450.00"),
		IssueDate:   time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
		Fingerprint: "abc123",
		AuditedAt:   time.Date(2023, 8, 1, 9, 30, 0, 0, time.UTC),
	}
	require.NoError(t, store.Append(ctx, rec))

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	got := all[0]
	assert.Equal(t, rec.InvoiceID, got.InvoiceID)
	assert.Equal(t, rec.Vendor, got.Vendor)
	// Totals survive as exact decimals, not floats.
	assert.True(t, got.Total.Equal(rec.Total), "got %s", got.Total)
	assert.Equal(t, "2023-07-15", got.IssueDate.Format("2006-01-02"))
	assert.Equal(t, rec.Fingerprint, got.Fingerprint)
}

func TestSQLiteStorePreservesInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"INV-3", "INV-1", "INV-2"} {
		require.NoError(t, store.Append(ctx, Record{
			InvoiceID: id,
			Vendor:    "acme",
			Total:     decimal.NewFromInt(1),
			IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
			AuditedAt: time.Now(),
		}))
	}

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "INV-3", all[0].InvoiceID)
	assert.Equal(t, "INV-1", all[1].InvoiceID)
	assert.Equal(t, "INV-2", all[2].InvoiceID)
}

func TestNewSQLiteStoreIdempotentSchema(t *testing.T) {
	db, err := database.New(database.Config{
		Path: filepath.Join(t.TempDir(), "history.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLiteStore(db.DB, zap.NewNop())
	require.NoError(t, err)
	_, err = NewSQLiteStore(db.DB, zap.NewNop())
	require.NoError(t, err)
}
