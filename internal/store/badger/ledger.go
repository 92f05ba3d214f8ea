// Package badger keeps the count ledger in an embedded badger database so it
// can live outside the primary store.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"waybilltrack/backend/internal/domain"
	"waybilltrack/backend/internal/store"
)

const keyPrefix = "ledger/"

type Ledger struct {
	db *badger.DB
}

type record struct {
	Entry     domain.CountLedgerEntry `json:"entry"`
	FirstSeen time.Time               `json:"first_seen"`
}

// Open opens (or creates) the ledger at path. An empty path opens an
// in-memory database.
func Open(path string) (*Ledger, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) UpsertCountEntry(_ context.Context, entry domain.CountLedgerEntry) error {
	if entry.WaybillID == "" || entry.ProductName == "" {
		return store.ErrInvalidInput
	}
	key := entryKey(entry.WaybillID, entry.ProductName)

	return l.db.Update(func(txn *badger.Txn) error {
		rec := record{Entry: entry, FirstSeen: entry.SavedAt}
		item, err := txn.Get(key)
		switch {
		case err == nil:
			var prev record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &prev)
			}); err != nil {
				return err
			}
			rec.FirstSeen = prev.FirstSeen
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(key, raw)
	})
}

func (l *Ledger) ListCountEntries(_ context.Context, waybillID string) ([]domain.CountLedgerEntry, error) {
	records := make([]record, 0, 8)
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix + waybillID + "/")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(records, func(a, b record) int {
		if c := a.FirstSeen.Compare(b.FirstSeen); c != 0 {
			return c
		}
		return strings.Compare(a.Entry.ProductName, b.Entry.ProductName)
	})
	entries := make([]domain.CountLedgerEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, rec.Entry)
	}
	return entries, nil
}

func entryKey(waybillID string, productName string) []byte {
	return []byte(keyPrefix + waybillID + "/" + productName)
}
