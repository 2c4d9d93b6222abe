package service

import (
	"context"
	"strings"
	"time"

	"github.com/Cythina1106/faregate/internal/faregate/cache"
	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// GateRegistry resolves gate ids to gate records, with an optional
// read-through cache in front of the store. A gate record is immutable for
// the duration of one tap, so a short TTL is safe; inventory edits appear
// once the entry expires.
type GateRegistry struct {
	store store.GateStore
	cache cache.Cache
	ttl   time.Duration
}

// NewGateRegistry builds a registry. Pass a nil cache to read straight
// through to the store.
func NewGateRegistry(st store.GateStore, c cache.Cache, ttl time.Duration) *GateRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &GateRegistry{store: st, cache: c, ttl: ttl}
}

func (r *GateRegistry) Get(ctx context.Context, gateID string) (types.Gate, error) {
	gateID = strings.TrimSpace(gateID)
	if gateID == "" {
		return types.Gate{}, store.ErrGateNotFound
	}

	key := "gate:" + gateID
	if r.cache != nil {
		var g types.Gate
		if err := cache.GetJSON(ctx, r.cache, key, &g); err == nil {
			return g, nil
		}
	}

	g, err := r.store.Get(ctx, gateID)
	if err != nil {
		return types.Gate{}, err
	}

	if r.cache != nil {
		// Best effort; a cache write failure never fails the lookup.
		_ = cache.SetJSON(ctx, r.cache, key, g, r.ttl)
	}

	return g, nil
}
