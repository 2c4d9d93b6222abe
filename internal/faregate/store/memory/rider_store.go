package memory

import (
	"context"
	"sync"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// RiderStore holds rider accounts in memory. Balance changes happen under
// the store lock, so the conditional debit is atomic with respect to
// concurrent taps.
type RiderStore struct {
	mu     sync.Mutex
	riders map[string]types.Rider
}

func NewRiderStore(riders []types.Rider) *RiderStore {
	m := make(map[string]types.Rider, len(riders))
	for _, r := range riders {
		if r.CardID != "" {
			m[r.CardID] = r
		}
	}
	return &RiderStore{riders: m}
}

func (s *RiderStore) Lookup(_ context.Context, cardID string) (types.Rider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.riders[cardID]
	if !ok {
		return types.Rider{}, store.ErrRiderNotFound
	}
	return r, nil
}

func (s *RiderStore) DebitIfSufficient(_ context.Context, cardID string, amountCents int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.riders[cardID]
	if !ok {
		return 0, store.ErrRiderNotFound
	}
	if r.BalanceCents < amountCents {
		return r.BalanceCents, store.ErrInsufficientFunds
	}
	r.BalanceCents -= amountCents
	s.riders[cardID] = r
	return r.BalanceCents, nil
}

func (s *RiderStore) Credit(_ context.Context, cardID string, amountCents int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.riders[cardID]
	if !ok {
		return 0, store.ErrRiderNotFound
	}
	r.BalanceCents += amountCents
	s.riders[cardID] = r
	return r.BalanceCents, nil
}
