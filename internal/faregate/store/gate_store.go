package store

import (
	"context"
	"errors"

	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// ErrGateNotFound is returned by Get for an unknown gate id.
var ErrGateNotFound = errors.New("gate not found")

// GateStore reads gate inventory. Gates are created and mutated by the
// inventory screens; tap processing only ever reads them.
type GateStore interface {
	Get(ctx context.Context, gateID string) (types.Gate, error)
}
