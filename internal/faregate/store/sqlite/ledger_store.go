package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/Cythina1106/faregate/internal/db"
	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// LedgerStore persists trip events in the trip_events table. Writes run
// through the single-writer worker; reads go straight to the connection.
type LedgerStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewLedgerStore(db *sql.DB, writer *dbpkg.Worker) *LedgerStore {
	return &LedgerStore{db: db, writer: writer}
}

func (s *LedgerStore) Append(ctx context.Context, ev types.TripEvent) (types.TripEvent, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO trip_events(
  event_id, kind, rider_id, rider_name, station_id, gate_id,
  occurred_at_ms, fare_cents, balance_after_cents, duration_ms, outcome, detail
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			ev.EventID, string(ev.Kind), ev.RiderID, ev.RiderName, ev.StationID, ev.GateID,
			ev.OccurredAt.UTC().UnixMilli(), ev.FareCents, ev.BalanceAfterCents,
			ev.DurationMs, string(ev.Outcome), ev.Detail,
		)
		if err != nil {
			return fmt.Errorf("Append insert: %w", err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("Append last insert id: %w", err)
		}
		ev.Seq = seq
		return nil
	})
	if err != nil {
		return types.TripEvent{}, err
	}
	return ev, nil
}

const eventColumns = `seq, event_id, kind, rider_id, rider_name, station_id, gate_id,
occurred_at_ms, fare_cents, balance_after_cents, duration_ms, outcome, detail`

func (s *LedgerStore) FindOpenEntry(ctx context.Context, riderID string) (types.TripEvent, bool, error) {
	// The open entry is the rider's latest successful entry appended after
	// their latest successful exit. Ordering is by seq, never by timestamp.
	row := s.db.QueryRowContext(ctx, `
SELECT `+eventColumns+`
FROM trip_events
WHERE rider_id = ? AND kind = 'entry' AND outcome = 'success'
  AND seq > COALESCE((
    SELECT MAX(seq) FROM trip_events
    WHERE rider_id = ? AND kind = 'exit' AND outcome = 'success'
  ), 0)
ORDER BY seq DESC
LIMIT 1;`, riderID, riderID)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return types.TripEvent{}, false, nil
	}
	if err != nil {
		return types.TripEvent{}, false, fmt.Errorf("FindOpenEntry: %w", err)
	}
	return ev, true, nil
}

func (s *LedgerStore) Recent(ctx context.Context, f store.RecentFilter) ([]types.TripEvent, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = store.DefaultRecentLimit
	}

	var (
		conds []string
		args  []any
	)
	if f.RiderID != "" {
		conds = append(conds, "rider_id = ?")
		args = append(args, f.RiderID)
	}
	if f.GateID != "" {
		conds = append(conds, "gate_id = ?")
		args = append(args, f.GateID)
	}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, string(f.Outcome))
	}

	q := "SELECT " + eventColumns + " FROM trip_events"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY seq DESC LIMIT ?;"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("Recent query: %w", err)
	}
	defer rows.Close()

	var out []types.TripEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("Recent scan: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Recent rows: %w", err)
	}
	return out, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (types.TripEvent, error) {
	var (
		ev           types.TripEvent
		kind         string
		outcome      string
		occurredAtMs int64
	)
	err := s.Scan(
		&ev.Seq, &ev.EventID, &kind, &ev.RiderID, &ev.RiderName, &ev.StationID, &ev.GateID,
		&occurredAtMs, &ev.FareCents, &ev.BalanceAfterCents, &ev.DurationMs, &outcome, &ev.Detail,
	)
	if err != nil {
		return types.TripEvent{}, err
	}
	ev.Kind = types.EventKind(kind)
	ev.Outcome = types.Outcome(outcome)
	ev.OccurredAt = time.UnixMilli(occurredAtMs).UTC()
	return ev, nil
}
