package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auditly/invoice-auditor/internal/models"
)

func TestMemoryStoreAppendAll(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	rec := Record{InvoiceID: "INV-1", Vendor: "acme", Total: decimal.NewFromInt(10)}
	require.NoError(t, store.Append(ctx, rec))
	require.NoError(t, store.Append(ctx, Record{InvoiceID: "INV-2"}))

	all, err = store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "INV-1", all[0].InvoiceID)
	assert.Equal(t, "INV-2", all[1].InvoiceID)
}

func TestMemoryStoreAllReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, Record{InvoiceID: "INV-1"}))

	all, err := store.All(ctx)
	require.NoError(t, err)
	all[0].InvoiceID = "mutated"

	again, err := store.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", again[0].InvoiceID)
}

func TestMemoryStoreConcurrentAppend(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Append(ctx, Record{InvoiceID: "INV"})
			_, _ = store.All(ctx)
		}()
	}
	wg.Wait()

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func TestNewRecordNormalizesVendor(t *testing.T) {
	inv := &models.Invoice{
		InvoiceID: "INV-1",
		Vendor:    models.VendorInfo{Name: "  Tech   Solutions Ltd. "},
		Total:     decimal.RequireFromString("2450.00"),
		IssueDate: time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	auditedAt := time.Date(2023, 8, 1, 9, 0, 0, 0, time.UTC)

	rec := NewRecord(inv, auditedAt)
	assert.Equal(t, "tech solutions ltd.", rec.Vendor)
	assert.Equal(t, inv.Fingerprint(), rec.Fingerprint)
	assert.True(t, rec.AuditedAt.Equal(auditedAt))
}
