package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/store"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestUpsertKeepsOneEntryPerKey(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()

	entry := domain.CountLedgerEntry{
		WaybillID:   "wb-1",
		WaybillNo:   "WB-001",
		ProductName: "Gula 1kg",
		Counts:      []int{5, 10, 2},
		Total:       17,
		SavedAt:     time.Now().UTC(),
	}
	require.NoError(t, l.UpsertCountEntry(ctx, entry))

	entry.Counts = []int{4}
	entry.Total = 4
	entry.SavedAt = entry.SavedAt.Add(time.Minute)
	require.NoError(t, l.UpsertCountEntry(ctx, entry))

	entries, err := l.ListCountEntries(ctx, "wb-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, 4, entries[0].Total)
	require.Equal(t, []int{4}, entries[0].Counts)
}

func TestListIsScopedToWaybillAndOrderedByFirstWrite(t *testing.T) {
	l := openLedger(t)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, l.UpsertCountEntry(ctx, domain.CountLedgerEntry{WaybillID: "wb-1", ProductName: "Zeta", SavedAt: base}))
	require.NoError(t, l.UpsertCountEntry(ctx, domain.CountLedgerEntry{WaybillID: "wb-1", ProductName: "Alpha", SavedAt: base.Add(time.Second)}))
	require.NoError(t, l.UpsertCountEntry(ctx, domain.CountLedgerEntry{WaybillID: "wb-10", ProductName: "Other", SavedAt: base}))

	entries, err := l.ListCountEntries(ctx, "wb-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Zeta", entries[0].ProductName)
	require.Equal(t, "Alpha", entries[1].ProductName)
}

func TestUpsertRejectsMissingKey(t *testing.T) {
	l := openLedger(t)
	err := l.UpsertCountEntry(context.Background(), domain.CountLedgerEntry{WaybillID: "wb-1"})
	require.ErrorIs(t, err, store.ErrInvalidInput)
}
