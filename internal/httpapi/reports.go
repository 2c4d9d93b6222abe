package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

// handleListEvents serves the console's event list: newest first, optionally
// filtered by rider, gate, kind, or outcome.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	f, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	events, err := s.ledger.Recent(r.Context(), f)
	if err != nil {
		s.logger.Error("event list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	if events == nil {
		events = []types.TripEvent{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// StatsResponse aggregates recent ledger activity for the dashboard. The
// numbers are derived here from the ledger's Recent query; the core does
// not compute statistics.
type StatsResponse struct {
	WindowSize         int            `json:"window_size"`
	Taps               int            `json:"taps"`
	Successes          int            `json:"successes"`
	Failures           int            `json:"failures"`
	FailuresByOutcome  map[string]int `json:"failures_by_outcome"`
	TripsCompleted     int            `json:"trips_completed"`
	FareCollectedCents int64          `json:"fare_collected_cents"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	limit := 1000
	if v := r.URL.Query().Get("window"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_window", "window must be a positive integer")
			return
		}
		limit = n
	}

	events, err := s.ledger.Recent(r.Context(), store.RecentFilter{Limit: limit})
	if err != nil {
		s.logger.Error("stats query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	resp := StatsResponse{
		WindowSize:        limit,
		Taps:              len(events),
		FailuresByOutcome: make(map[string]int),
	}
	for _, ev := range events {
		if ev.Successful() {
			resp.Successes++
			if ev.Kind == types.KindExit {
				resp.TripsCompleted++
				resp.FareCollectedCents += ev.FareCents
			}
			continue
		}
		resp.Failures++
		resp.FailuresByOutcome[string(ev.Outcome)]++
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRider(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardID")

	rider, err := s.riders.Lookup(r.Context(), cardID)
	if err != nil {
		if errors.Is(err, store.ErrRiderNotFound) {
			writeError(w, http.StatusNotFound, "rider_not_found", "unknown card")
			return
		}
		s.logger.Error("rider lookup failed", "card_id", cardID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, rider)
}

func (s *Server) handleGetGate(w http.ResponseWriter, r *http.Request) {
	gateID := chi.URLParam(r, "gateID")

	gate, err := s.gates.Get(r.Context(), gateID)
	if err != nil {
		if errors.Is(err, store.ErrGateNotFound) {
			writeError(w, http.StatusNotFound, "gate_not_found", "unknown gate")
			return
		}
		s.logger.Error("gate lookup failed", "gate_id", gateID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, gate)
}

// filterFromQuery builds a RecentFilter from query parameters, writing a
// 400 and returning ok=false on invalid input.
func filterFromQuery(w http.ResponseWriter, r *http.Request) (store.RecentFilter, bool) {
	q := r.URL.Query()

	f := store.RecentFilter{
		RiderID: q.Get("rider_id"),
		GateID:  q.Get("gate_id"),
	}

	if v := q.Get("kind"); v != "" {
		k := types.EventKind(v)
		if k != types.KindEntry && k != types.KindExit {
			writeError(w, http.StatusBadRequest, "invalid_kind", "kind must be entry or exit")
			return store.RecentFilter{}, false
		}
		f.Kind = k
	}
	if v := q.Get("outcome"); v != "" {
		o := types.Outcome(v)
		if !o.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_outcome", "unknown outcome value")
			return store.RecentFilter{}, false
		}
		f.Outcome = o
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return store.RecentFilter{}, false
		}
		f.Limit = n
	}

	return f, true
}
