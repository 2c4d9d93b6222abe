// Package httpapi exposes the tap processor and the trip ledger over JSON
// HTTP for the scanner screen and the admin console.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Cythina1106/faregate/internal/faregate/service"
	"github.com/Cythina1106/faregate/internal/faregate/store"
	"github.com/Cythina1106/faregate/internal/faregate/types"
)

type Dependencies struct {
	Logger      *slog.Logger
	Addr        string
	Processor   *service.Processor
	Gates       *service.GateRegistry
	Riders      store.RiderStore
	Ledger      store.LedgerStore
	CORSOrigins []string
	Tracing     bool
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	processor  *service.Processor
	gates      *service.GateRegistry
	riders     store.RiderStore
	ledger     store.LedgerStore
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:    d.Logger,
		processor: d.Processor,
		gates:     d.Gates,
		riders:    d.Riders,
		ledger:    d.Ledger,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(NewSlogLogger(d.Logger))
	r.Use(chimiddleware.Recoverer)
	if d.Tracing {
		r.Use(Tracing())
	}
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/taps", s.handleTap)
		r.Get("/events", s.handleListEvents)
		r.Get("/stats", s.handleStats)
		r.Get("/riders/{cardID}", s.handleGetRider)
		r.Get("/gates/{gateID}", s.handleGetGate)
	})

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	var req types.TapRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	ev, err := s.processor.ProcessTap(r.Context(), req.GateID, req.CardID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGateID):
			writeError(w, http.StatusBadRequest, "invalid_gate_id", err.Error())
		case errors.Is(err, service.ErrInvalidCardID):
			writeError(w, http.StatusBadRequest, "invalid_card_id", err.Error())
		case errors.Is(err, store.ErrGateNotFound):
			writeError(w, http.StatusNotFound, "gate_not_found", "unknown gate")
		default:
			s.logger.Error("tap processing failed", "gate_id", req.GateID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, types.TapResponse{
		OK:         ev.Successful(),
		Event:      ev,
		ServerTime: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
