// Package api exposes the state of each household over HTTP and accepts manual changes and commands.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/clambin/homeshift/internal/controller"
	"github.com/go-chi/chi/v5"
)

// Registry holds the coordinator of each household.
type Registry interface {
	Get(name string) (*controller.Coordinator, error)
	Snapshots() []controller.Snapshot
}

var _ Registry = &controller.Manager{}

// Server serves the household API.
type Server struct {
	registry Registry
	logger   *slog.Logger
}

// New returns a Server for the households held by registry.
func New(registry Registry, logger *slog.Logger) *Server {
	return &Server{registry: registry, logger: logger}
}

// RegisterRoutes adds the household API to a router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/", s.handleList)
	r.Route("/{household}", func(r chi.Router) {
		r.Get("/", s.handleGet)
		r.Put("/day-mode", s.handleSetDayMode)
		r.Put("/thermostat-mode", s.handleSetThermostatMode)
		r.Put("/override-duration", s.handleSetOverrideDuration)
		r.Post("/refresh-schedulers", s.handleRefreshSchedulers)
		r.Post("/check-day-type", s.handleCheckDayType)
	})
}

type modeRequest struct {
	Value string `json:"value"`
}

type durationRequest struct {
	Value *int `json:"value"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type checkResponse struct {
	Checked  bool                `json:"checked"`
	Snapshot controller.Snapshot `json:"snapshot"`
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.Snapshots())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	h, ok := s.household(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, h.Snapshot())
}

func (s *Server) handleSetDayMode(w http.ResponseWriter, r *http.Request) {
	s.setMode(w, r, (*controller.Coordinator).SetDayMode)
}

func (s *Server) handleSetThermostatMode(w http.ResponseWriter, r *http.Request) {
	s.setMode(w, r, (*controller.Coordinator).SetThermostatMode)
}

func (s *Server) setMode(w http.ResponseWriter, r *http.Request, set func(*controller.Coordinator, context.Context, string) error) {
	h, ok := s.household(w, r)
	if !ok {
		return
	}
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == "" {
		s.writeError(w, http.StatusBadRequest, "invalid request: expected {\"value\": \"<mode>\"}")
		return
	}
	if err := set(h, r.Context(), req.Value); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, controller.ErrUnknownMode) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, h.Snapshot())
}

func (s *Server) handleSetOverrideDuration(w http.ResponseWriter, r *http.Request) {
	h, ok := s.household(w, r)
	if !ok {
		return
	}
	var req durationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: expected {\"value\": <minutes>}")
		return
	}
	h.SetOverrideDuration(r.Context(), *req.Value)
	s.writeJSON(w, http.StatusOK, h.Snapshot())
}

func (s *Server) handleRefreshSchedulers(w http.ResponseWriter, r *http.Request) {
	h, ok := s.household(w, r)
	if !ok {
		return
	}
	h.RefreshSchedulers(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckDayType(w http.ResponseWriter, r *http.Request) {
	h, ok := s.household(w, r)
	if !ok {
		return
	}
	snapshot, checked := h.CheckDayType(r.Context())
	s.writeJSON(w, http.StatusOK, checkResponse{Checked: checked, Snapshot: snapshot})
}

func (s *Server) household(w http.ResponseWriter, r *http.Request) (*controller.Coordinator, bool) {
	h, err := s.registry.Get(chi.URLParam(r, "household"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, controller.ErrUnknownHousehold) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err.Error())
		return nil, false
	}
	return h, true
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "err", err)
	}
}
