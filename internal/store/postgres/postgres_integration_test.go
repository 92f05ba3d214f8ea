package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	databaseURL := os.Getenv("WAYBILLTRACK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set WAYBILLTRACK_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestWaybillLifecycleAndDiscrepancies(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	waybillNo := fmt.Sprintf("WB-IT-%d", stamp)
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM waybills WHERE waybill_no = $1`, waybillNo)
	})

	created, err := s.CreateWaybill(ctx, domain.Waybill{
		WaybillNo: waybillNo,
		Date:      time.Now().UTC(),
		Count:     20,
		UOM:       "box",
		Items: []domain.WaybillItem{
			{ProductName: "Gula 1kg", Incoming: 10, ActualCount: 7, ConversionFactor: decimal.NewFromInt(1)},
			{ProductName: "Kopi Sachet", Incoming: 10, ActualCount: 10, ConversionFactor: decimal.NewFromInt(10)},
		},
	})
	if err != nil {
		t.Fatalf("create waybill: %v", err)
	}
	if created.Status != domain.WaybillStatusOpen {
		t.Fatalf("expected OPEN, got %s", created.Status)
	}

	if _, err := s.CreateWaybill(ctx, domain.Waybill{WaybillNo: waybillNo, UOM: "box", Date: time.Now().UTC()}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict on duplicate waybill_no, got %v", err)
	}

	closedAt := time.Now().UTC()
	created.Status = domain.WaybillStatusClosed
	created.ClosedAt = &closedAt
	if _, err := s.UpdateWaybill(ctx, *created); err != nil {
		t.Fatalf("close waybill: %v", err)
	}

	from := closedAt.Add(-time.Minute)
	to := closedAt.Add(time.Minute)
	list, err := s.ListDiscrepancies(ctx, &from, &to, 0)
	if err != nil {
		t.Fatalf("list discrepancies: %v", err)
	}
	found := 0
	for _, d := range list {
		if d.WaybillNo == waybillNo {
			found++
			if d.ProductName != "Gula 1kg" || d.Incoming != 10 || d.ActualCount != 7 {
				t.Fatalf("unexpected discrepancy %+v", d)
			}
		}
	}
	if found != 1 {
		t.Fatalf("expected 1 discrepancy for %s, got %d", waybillNo, found)
	}
}

func TestCountLedgerUpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	waybillID := fmt.Sprintf("wb-ledger-it-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM count_ledger WHERE waybill_id = $1`, waybillID)
	})

	entry := domain.CountLedgerEntry{
		WaybillID:   waybillID,
		WaybillNo:   "WB-LEDGER-IT",
		ProductName: "Gula 1kg",
		Counts:      []int{5, 10, 2},
		Total:       17,
		SavedAt:     time.Now().UTC(),
	}
	for i := 0; i < 2; i++ {
		if err := s.UpsertCountEntry(ctx, entry); err != nil {
			t.Fatalf("upsert #%d: %v", i+1, err)
		}
	}

	entries, err := s.ListCountEntries(ctx, waybillID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Total != 17 || len(entries[0].Counts) != 3 {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
}
