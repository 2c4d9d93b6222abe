package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and
// pgx.Tx. Accepting this instead of the pool lets integration tests pass a
// transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LedgerStore is the Postgres implementation of store.LedgerStore.
type LedgerStore struct {
	db db
}

func NewLedgerStore(db db) *LedgerStore {
	return &LedgerStore{db: db}
}

const eventColumns = `seq, event_id, kind, rider_id, rider_name, station_id, gate_id,
occurred_at, fare_cents, balance_after_cents, duration_ms, outcome, detail`

func (s *LedgerStore) Append(ctx context.Context, ev types.TripEvent) (types.TripEvent, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	const q = `
		INSERT INTO trip_events (
			event_id, kind, rider_id, rider_name, station_id, gate_id,
			occurred_at, fare_cents, balance_after_cents, duration_ms, outcome, detail
		) VALUES (
			@event_id, @kind, @rider_id, @rider_name, @station_id, @gate_id,
			@occurred_at, @fare_cents, @balance_after_cents, @duration_ms, @outcome, @detail
		)
		RETURNING seq`

	args := pgx.NamedArgs{
		"event_id":            ev.EventID,
		"kind":                string(ev.Kind),
		"rider_id":            ev.RiderID,
		"rider_name":          ev.RiderName,
		"station_id":          ev.StationID,
		"gate_id":             ev.GateID,
		"occurred_at":         ev.OccurredAt,
		"fare_cents":          ev.FareCents,
		"balance_after_cents": ev.BalanceAfterCents,
		"duration_ms":         ev.DurationMs,
		"outcome":             string(ev.Outcome),
		"detail":              ev.Detail,
	}

	if err := s.db.QueryRow(ctx, q, args).Scan(&ev.Seq); err != nil {
		return types.TripEvent{}, fmt.Errorf("postgres.LedgerStore.Append: %w", err)
	}
	return ev, nil
}

func (s *LedgerStore) FindOpenEntry(ctx context.Context, riderID string) (types.TripEvent, bool, error) {
	const q = `
		SELECT ` + eventColumns + `
		FROM trip_events
		WHERE rider_id = @rider_id AND kind = 'entry' AND outcome = 'success'
		  AND seq > COALESCE((
			SELECT MAX(seq) FROM trip_events
			WHERE rider_id = @rider_id AND kind = 'exit' AND outcome = 'success'
		  ), 0)
		ORDER BY seq DESC
		LIMIT 1`

	row := s.db.QueryRow(ctx, q, pgx.NamedArgs{"rider_id": riderID})
	ev, err := scanEvent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return types.TripEvent{}, false, nil
		}
		return types.TripEvent{}, false, fmt.Errorf("postgres.LedgerStore.FindOpenEntry: %w", err)
	}
	return ev, true, nil
}

func (s *LedgerStore) Recent(ctx context.Context, f store.RecentFilter) ([]types.TripEvent, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = store.DefaultRecentLimit
	}

	conds := []string{"TRUE"}
	args := pgx.NamedArgs{"limit": limit}
	if f.RiderID != "" {
		conds = append(conds, "rider_id = @rider_id")
		args["rider_id"] = f.RiderID
	}
	if f.GateID != "" {
		conds = append(conds, "gate_id = @gate_id")
		args["gate_id"] = f.GateID
	}
	if f.Kind != "" {
		conds = append(conds, "kind = @kind")
		args["kind"] = string(f.Kind)
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome = @outcome")
		args["outcome"] = string(f.Outcome)
	}

	q := `SELECT ` + eventColumns + ` FROM trip_events WHERE ` +
		strings.Join(conds, " AND ") +
		` ORDER BY seq DESC LIMIT @limit`

	rows, err := s.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("postgres.LedgerStore.Recent: %w", err)
	}
	defer rows.Close()

	var out []types.TripEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.LedgerStore.Recent: scan: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.LedgerStore.Recent: rows: %w", err)
	}
	return out, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (types.TripEvent, error) {
	var (
		ev      types.TripEvent
		kind    string
		outcome string
	)
	err := s.Scan(
		&ev.Seq, &ev.EventID, &kind, &ev.RiderID, &ev.RiderName, &ev.StationID, &ev.GateID,
		&ev.OccurredAt, &ev.FareCents, &ev.BalanceAfterCents, &ev.DurationMs, &outcome, &ev.Detail,
	)
	if err != nil {
		return types.TripEvent{}, err
	}
	ev.Kind = types.EventKind(kind)
	ev.Outcome = types.Outcome(outcome)
	ev.OccurredAt = ev.OccurredAt.UTC()
	return ev, nil
}
