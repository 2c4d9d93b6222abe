package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/Cythina1106/faregate/internal/faregate/store/postgres"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// newTestPool connects to the database named by TEST_DATABASE_URL, applies
// migrations, and truncates all tables so each test starts clean.
//
// The test is skipped automatically when TEST_DATABASE_URL is not set, so
// unit tests run without a database.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	mdb, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("newTestPool: open: %v", err)
	}
	if err := postgres.Migrate(mdb); err != nil {
		mdb.Close()
		t.Fatalf("newTestPool: migrate: %v", err)
	}
	mdb.Close()

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("newTestPool: open pool: %v", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("newTestPool: ping: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(context.Background(),
		`TRUNCATE trip_events, riders, gates RESTART IDENTITY`); err != nil {
		t.Fatalf("newTestPool: truncate: %v", err)
	}

	return pool
}

func insertTestRider(t *testing.T, pool *pgxpool.Pool, r types.Rider) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
INSERT INTO riders(card_id, name, category, status, balance_cents, valid_until)
VALUES (@card_id, @name, @category, @status, @balance_cents, @valid_until)`,
		pgx.NamedArgs{
			"card_id":       r.CardID,
			"name":          r.Name,
			"category":      string(r.Category),
			"status":        string(r.Status),
			"balance_cents": r.BalanceCents,
			"valid_until":   r.ValidUntil,
		})
	if err != nil {
		t.Fatalf("insertTestRider: %v", err)
	}
}

func testRider(cardID string, balance int64) types.Rider {
	return types.Rider{
		CardID:       cardID,
		Name:         "Test Rider",
		Category:     types.CategoryStandard,
		Status:       types.StatusActive,
		BalanceCents: balance,
		ValidUntil:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
