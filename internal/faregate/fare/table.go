// Package fare holds the static station-pair fare table. Lookup is a pure
// function of the loaded rules; the processor never mutates it.
package fare

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// Rule prices travel between an unordered station pair. Prices is expected
// to cover all four categories; a missing category falls back to the table's
// default fare. DistanceKm is informational only.
type Rule struct {
	StationA   string                   `json:"station_a"`
	StationB   string                   `json:"station_b"`
	Prices     map[types.Category]int64 `json:"prices_cents"`
	DistanceKm float64                  `json:"distance_km,omitempty"`
}

// Table answers fare lookups. The zero value is not usable; build one with
// New or LoadFile.
type Table struct {
	rules            map[pairKey]Rule
	defaultFareCents int64
}

type pairKey struct {
	lo, hi string
}

// keyFor normalizes an unordered station pair so (A,B) and (B,A) hit the
// same rule.
func keyFor(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// New builds a Table from rules. A later rule for the same pair replaces an
// earlier one. defaultFareCents is charged when no rule matches a pair;
// degraded pricing is preferred over refusing an exit at the gate line.
func New(rules []Rule, defaultFareCents int64) *Table {
	t := &Table{
		rules:            make(map[pairKey]Rule, len(rules)),
		defaultFareCents: defaultFareCents,
	}
	for _, r := range rules {
		if r.StationA == "" || r.StationB == "" {
			continue
		}
		t.rules[keyFor(r.StationA, r.StationB)] = r
	}
	return t
}

// LoadFile reads a JSON array of rules from path.
func LoadFile(path string, defaultFareCents int64) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fare.LoadFile: %w", err)
	}
	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("fare.LoadFile: parse %s: %w", path, err)
	}
	return New(rules, defaultFareCents), nil
}

// FareFor returns the price in cents for travelling between the two stations
// in the given category. Lookup is symmetric in the station pair. It never
// fails: an unknown pair or an unpriced category returns the default fare.
// A rule may explicitly price a category at zero (free staff travel).
func (t *Table) FareFor(stationA, stationB string, cat types.Category) int64 {
	rule, ok := t.rules[keyFor(stationA, stationB)]
	if !ok {
		return t.defaultFareCents
	}
	price, ok := rule.Prices[cat]
	if !ok {
		return t.defaultFareCents
	}
	return price
}

// Len returns the number of loaded rules. Used by startup logging.
func (t *Table) Len() int { return len(t.rules) }
