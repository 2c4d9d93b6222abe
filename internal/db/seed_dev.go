package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeedDev inserts a starter set of gates and riders so a dev server is
// usable immediately after first boot. Idempotent: existing rows win.
func SeedDev(ctx context.Context, db *sql.DB) error {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()
	validMs := now.AddDate(1, 0, 0).UnixMilli()

	gates := []struct {
		id, station, name, mode string
	}{
		{"gate-central-1", "st_central", "Central North", "entry_only"},
		{"gate-central-2", "st_central", "Central South", "bidirectional"},
		{"gate-riverside-1", "st_riverside", "Riverside Main", "bidirectional"},
		{"gate-airport-1", "st_airport", "Airport Arrivals", "exit_only"},
		{"gate-harbor-1", "st_harbor", "Harbor Concourse", "bidirectional"},
	}
	for _, g := range gates {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO gates(gate_id, station_id, name, mode, status, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, 'online', ?, ?);`,
			g.id, g.station, g.name, g.mode, nowMs, nowMs,
		); err != nil {
			return fmt.Errorf("seed gate %s: %w", g.id, err)
		}
	}

	riders := []struct {
		card, name, category, status string
		balance                      int64
	}{
		{"card-1001", "Wei Zhang", "standard", "active", 5000},
		{"card-1002", "Li Na", "student", "active", 1200},
		{"card-1003", "Chen Jian", "senior", "active", 800},
		{"card-1004", "Ops Staff 04", "staff", "active", 0},
		{"card-1005", "Zhou Min", "standard", "suspended", 2500},
	}
	for _, r := range riders {
		if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO riders(card_id, name, category, status, balance_cents, valid_until_ms, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			r.card, r.name, r.category, r.status, r.balance, validMs, nowMs, nowMs,
		); err != nil {
			return fmt.Errorf("seed rider %s: %w", r.card, err)
		}
	}

	return nil
}
