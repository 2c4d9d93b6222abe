package main

import (
	"time"

	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// devFixtures returns the gate and rider set used by the memory backend.
// It mirrors the sqlite dev seed so either backend behaves the same in dev.
func devFixtures() ([]types.Gate, []types.Rider) {
	gates := []types.Gate{
		{ID: "gate-central-1", StationID: "st_central", Name: "Central North", Mode: types.GateEntryOnly, Status: types.GateOnline},
		{ID: "gate-central-2", StationID: "st_central", Name: "Central South", Mode: types.GateBidirectional, Status: types.GateOnline},
		{ID: "gate-riverside-1", StationID: "st_riverside", Name: "Riverside Main", Mode: types.GateBidirectional, Status: types.GateOnline},
		{ID: "gate-airport-1", StationID: "st_airport", Name: "Airport Arrivals", Mode: types.GateExitOnly, Status: types.GateOnline},
		{ID: "gate-harbor-1", StationID: "st_harbor", Name: "Harbor Concourse", Mode: types.GateBidirectional, Status: types.GateOnline},
	}

	until := time.Now().AddDate(1, 0, 0)
	riders := []types.Rider{
		{CardID: "card-1001", Name: "Wei Zhang", Category: types.CategoryStandard, Status: types.StatusActive, BalanceCents: 5000, ValidUntil: until},
		{CardID: "card-1002", Name: "Li Na", Category: types.CategoryStudent, Status: types.StatusActive, BalanceCents: 1200, ValidUntil: until},
		{CardID: "card-1003", Name: "Chen Jian", Category: types.CategorySenior, Status: types.StatusActive, BalanceCents: 800, ValidUntil: until},
		{CardID: "card-1004", Name: "Ops Staff 04", Category: types.CategoryStaff, Status: types.StatusActive, BalanceCents: 0, ValidUntil: until},
		{CardID: "card-1005", Name: "Zhou Min", Category: types.CategoryStandard, Status: types.StatusSuspended, BalanceCents: 2500, ValidUntil: until},
	}

	return gates, riders
}
