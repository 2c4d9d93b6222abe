package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// GateStore reads gate inventory. Gate rows are written by the admin
// console's inventory screens (and the dev seeder), never by tap processing,
// so this store has no writer.
type GateStore struct {
	db *sql.DB
}

func NewGateStore(db *sql.DB) *GateStore {
	return &GateStore{db: db}
}

func (s *GateStore) Get(ctx context.Context, gateID string) (types.Gate, error) {
	gateID = strings.TrimSpace(gateID)

	var (
		g      types.Gate
		mode   string
		status string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT gate_id, station_id, name, mode, status
FROM gates
WHERE gate_id = ?;`, gateID).Scan(&g.ID, &g.StationID, &g.Name, &mode, &status)
	if err == sql.ErrNoRows {
		return types.Gate{}, store.ErrGateNotFound
	}
	if err != nil {
		return types.Gate{}, fmt.Errorf("Get gate query: %w", err)
	}

	g.Mode = types.GateMode(mode)
	g.Status = types.GateStatus(status)
	return g, nil
}
