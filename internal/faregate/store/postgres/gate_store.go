package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// GateStore is the Postgres implementation of store.GateStore.
type GateStore struct {
	db db
}

func NewGateStore(db db) *GateStore {
	return &GateStore{db: db}
}

func (s *GateStore) Get(ctx context.Context, gateID string) (types.Gate, error) {
	const q = `
		SELECT gate_id, station_id, name, mode, status
		FROM gates
		WHERE gate_id = @gate_id`

	var (
		g      types.Gate
		mode   string
		status string
	)
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"gate_id": gateID}).Scan(
		&g.ID, &g.StationID, &g.Name, &mode, &status,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return types.Gate{}, store.ErrGateNotFound
		}
		return types.Gate{}, fmt.Errorf("postgres.GateStore.Get: %w", err)
	}

	g.Mode = types.GateMode(mode)
	g.Status = types.GateStatus(status)
	return g, nil
}
