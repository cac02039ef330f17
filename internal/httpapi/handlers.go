// Package httpapi serves the downstream-consumer boundary: read-only
// access to the pending set, accepted set, displayed location and
// transient flags, plus the accept and status-update commands.
package httpapi

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/dispatch-agent/internal/lifecycle"
	"github.com/example/dispatch-agent/internal/location"
	"github.com/example/dispatch-agent/internal/models"
)

type Server struct {
	store   *lifecycle.Store
	interp  *location.Interpolator
	sampler *location.Sampler
	logger  *slog.Logger
	mux     *mux.Router
}

func NewServer(store *lifecycle.Store, interp *location.Interpolator, sampler *location.Sampler, logger *slog.Logger) *Server {
	s := &Server{store: store, interp: interp, sampler: sampler, logger: logger, mux: mux.NewRouter()}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/requests/pending", s.handlePending).Methods("GET")
	s.mux.HandleFunc("/api/v1/requests/accepted", s.handleAccepted).Methods("GET")
	s.mux.HandleFunc("/api/v1/requests/{trip_id}/accept", s.handleAccept).Methods("POST")
	s.mux.HandleFunc("/api/v1/requests/{trip_id}/status", s.handleStatus).Methods("POST")
	s.mux.HandleFunc("/api/v1/location", s.handleLocation).Methods("GET")
	s.mux.HandleFunc("/api/v1/flags", s.handleFlags).Methods("GET")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Pending())
}

func (s *Server) handleAccepted(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Accepted())
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	resp := map[string]models.Coord{
		"displayed":  s.interp.Displayed(),
		"last_known": s.sampler.LastKnown(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFlags(w http.ResponseWriter, r *http.Request) {
	success, conflict := s.store.Flags()
	writeJSON(w, http.StatusOK, map[string]bool{"assigned": success, "conflict": conflict})
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	tripID, err := tripID(r)
	if err != nil {
		http.Error(w, "bad trip_id", http.StatusBadRequest)
		return
	}
	if err := s.store.Accept(r.Context(), tripID); err != nil {
		if errors.Is(err, lifecycle.ErrUnknownRequest) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		// retryable upstream failure, pending entry left in place
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	success, conflict := s.store.Flags()
	writeJSON(w, http.StatusOK, map[string]bool{"assigned": success, "conflict": conflict})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	tripID, err := tripID(r)
	if err != nil {
		http.Error(w, "bad trip_id", http.StatusBadRequest)
		return
	}
	var body struct {
		Estado string `json:"estado"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.AdvanceStatus(r.Context(), tripID, body.Estado); err != nil {
		switch {
		case errors.Is(err, lifecycle.ErrUnknownRequest):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, lifecycle.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusBadGateway)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func tripID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["trip_id"], 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newID() string { b := make([]byte, 8); _, _ = rand.Read(b); return hex.EncodeToString(b) }
