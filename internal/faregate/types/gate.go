package types

// GateMode is the directional mode a gate is configured for.
type GateMode string

const (
	GateEntryOnly     GateMode = "entry_only"
	GateExitOnly      GateMode = "exit_only"
	GateBidirectional GateMode = "bidirectional"
)

// Valid reports whether m is a known directional mode.
func (m GateMode) Valid() bool {
	switch m {
	case GateEntryOnly, GateExitOnly, GateBidirectional:
		return true
	}
	return false
}

// GateStatus is the operational state of a gate. Only an online gate may
// produce a successful event.
type GateStatus string

const (
	GateOnline  GateStatus = "online"
	GateOffline GateStatus = "offline"
	GateFaulted GateStatus = "faulted"
)

// Gate is a physical access point at a station. Gate records are managed by
// the inventory side of the console and are immutable for the duration of a
// single tap.
type Gate struct {
	ID        string     `json:"id"`
	StationID string     `json:"station_id"`
	Name      string     `json:"name,omitempty"`
	Mode      GateMode   `json:"mode"`
	Status    GateStatus `json:"status"`
}
