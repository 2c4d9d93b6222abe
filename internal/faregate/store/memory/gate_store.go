package memory

import (
	"context"
	"sync"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// GateStore holds gate inventory in memory.
type GateStore struct {
	mu    sync.RWMutex
	gates map[string]types.Gate
}

func NewGateStore(gates []types.Gate) *GateStore {
	m := make(map[string]types.Gate, len(gates))
	for _, g := range gates {
		if g.ID != "" {
			m[g.ID] = g
		}
	}
	return &GateStore{gates: m}
}

func (s *GateStore) Get(_ context.Context, gateID string) (types.Gate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.gates[gateID]
	if !ok {
		return types.Gate{}, store.ErrGateNotFound
	}
	return g, nil
}

// Add inserts or replaces a gate. Test-only helper.
func (s *GateStore) Add(g types.Gate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gates[g.ID] = g
}

// SetStatus flips a gate's operational status. Test-only helper.
func (s *GateStore) SetStatus(gateID string, status types.GateStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gates[gateID]; ok {
		g.Status = status
		s.gates[gateID] = g
	}
}
