package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/store/sqlite"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

func TestGateGet_ReturnsGate(t *testing.T) {
	conn := openTestDB(t)
	insertGate(t, conn, types.Gate{
		ID:        "gate-1",
		StationID: "st_a",
		Name:      "A North",
		Mode:      types.GateBidirectional,
		Status:    types.GateOnline,
	})
	s := sqlite.NewGateStore(conn)

	g, err := s.Get(context.Background(), "gate-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if g.StationID != "st_a" || g.Mode != types.GateBidirectional || g.Status != types.GateOnline {
		t.Errorf("gate = %+v", g)
	}
}

func TestGateGet_Unknown(t *testing.T) {
	s := sqlite.NewGateStore(openTestDB(t))

	_, err := s.Get(context.Background(), "gate-nope")
	if !errors.Is(err, store.ErrGateNotFound) {
		t.Fatalf("err = %v, want ErrGateNotFound", err)
	}
}
