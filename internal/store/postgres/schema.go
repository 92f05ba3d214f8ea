package postgres

import (
	"context"
	"fmt"
	"log"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		category_normalized TEXT NOT NULL,
		product_name TEXT NOT NULL UNIQUE,
		product_name_normalized TEXT NOT NULL,
		sku TEXT,
		barcode TEXT,
		price NUMERIC(14,2) NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0,
		base_unit TEXT,
		conversion_factor NUMERIC(14,4) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category_normalized ON products(category_normalized)`,
	`CREATE TABLE IF NOT EXISTS waybills (
		id TEXT PRIMARY KEY,
		waybill_no TEXT NOT NULL UNIQUE,
		date TIMESTAMPTZ NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		uom TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'OPEN',
		closed_at TIMESTAMPTZ,
		items JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_waybills_status_closed_at ON waybills(status, closed_at DESC)`,
	`CREATE TABLE IF NOT EXISTS count_ledger (
		waybill_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		waybill_no TEXT NOT NULL,
		counts JSONB NOT NULL DEFAULT '[]'::jsonb,
		total INTEGER NOT NULL DEFAULT 0,
		remark_actual TEXT NOT NULL DEFAULT '',
		product_id TEXT,
		saved_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (waybill_id, product_name)
	)`,
	`CREATE TABLE IF NOT EXISTS app_users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		fullname TEXT NOT NULL DEFAULT '',
		email TEXT UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate creates the tables this store reads and writes. Every statement is
// idempotent so it runs on each startup.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	log.Printf("[postgres] schema ready (%d statements)", len(schema))
	return nil
}
