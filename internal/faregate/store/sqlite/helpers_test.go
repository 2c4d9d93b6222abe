package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Cythina1106/faregate/internal/db"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// openTestDB returns an in-memory SQLite connection with the same PRAGMAs
// and schema as production.  The connection is closed automatically when the
// test finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database.  The shared-cache URI
	// keeps the database alive for the lifetime of the connection pool
	// (important because sql.DB may close/reopen the underlying conn).
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection for SQLite safety.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	// Apply the same migrations as production.
	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn.  The worker is closed
// automatically when the test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// insertRider seeds one rider row directly.
func insertRider(t *testing.T, conn *sql.DB, r types.Rider) {
	t.Helper()

	nowMs := time.Now().UTC().UnixMilli()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO riders(card_id, name, category, status, balance_cents, valid_until_ms, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		r.CardID, r.Name, string(r.Category), string(r.Status), r.BalanceCents,
		r.ValidUntil.UnixMilli(), nowMs, nowMs,
	)
	if err != nil {
		t.Fatalf("insertRider: %v", err)
	}
}

// insertGate seeds one gate row directly.
func insertGate(t *testing.T, conn *sql.DB, g types.Gate) {
	t.Helper()

	nowMs := time.Now().UTC().UnixMilli()
	_, err := conn.ExecContext(context.Background(), `
INSERT INTO gates(gate_id, station_id, name, mode, status, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
		g.ID, g.StationID, g.Name, string(g.Mode), string(g.Status), nowMs, nowMs,
	)
	if err != nil {
		t.Fatalf("insertGate: %v", err)
	}
}
