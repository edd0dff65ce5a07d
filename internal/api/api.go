// Package api exposes the controller's pull-style HTTP surface: station
// status, the device snapshot, the toggle journal, and the same toggle entry
// point the physical buttons use.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oebus/sprinkler-controller/internal/controller"
	"github.com/oebus/sprinkler-controller/internal/journal"
	"github.com/oebus/sprinkler-controller/internal/station"
	"github.com/oebus/sprinkler-controller/internal/status"
)

const journalPageSize = 50

// Snapshotter is the slice of the device client the API needs.
type Snapshotter interface {
	Snapshot() map[string]json.RawMessage
}

type Server struct {
	reporter        *status.Reporter
	coordinator     *controller.Coordinator
	registry        *station.Registry
	device          Snapshotter
	journal         *journal.Journal
	defaultDuration time.Duration
}

type ToggleRequest struct {
	DurationSeconds int `json:"duration_seconds"`
}

type ToggleResponse struct {
	Outcome         string `json:"outcome"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

type ReloadResponse struct {
	Stations int `json:"stations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(reporter *status.Reporter, coordinator *controller.Coordinator, registry *station.Registry, device Snapshotter, jrnl *journal.Journal, defaultDuration time.Duration) *Server {
	return &Server{
		reporter:        reporter,
		coordinator:     coordinator,
		registry:        registry,
		device:          device,
		journal:         jrnl,
		defaultDuration: defaultDuration,
	}
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Info().Str("address", addr).Msg("Starting REST API server")

	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/stations", s.handleStations)
	mux.HandleFunc("/api/stations/", s.handleStationOperations)
	mux.HandleFunc("/api/device", s.handleDevice)
	mux.HandleFunc("/api/journal", s.handleJournal)

	return mux
}

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.reporter.Stations())
}

func (s *Server) handleStationOperations(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/stations/")
	parts := strings.Split(path, "/")

	if parts[0] == "reload" {
		s.reloadStations(w, r)
		return
	}

	if len(parts) != 2 || parts[1] != "toggle" {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}

	displayIndex, err := strconv.Atoi(parts[0])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Station ID must be an integer")
		return
	}
	s.toggleStation(w, r, displayIndex)
}

func (s *Server) reloadStations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	n := s.registry.Reload()
	log.Info().Int("stations", n).Msg("Station registry reloaded")
	s.writeJSON(w, http.StatusOK, ReloadResponse{Stations: n})
}

func (s *Server) toggleStation(w http.ResponseWriter, r *http.Request, displayIndex int) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	duration := s.defaultDuration
	if r.ContentLength > 0 {
		var req ToggleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		duration = time.Duration(req.DurationSeconds) * time.Second
	}

	result := s.coordinator.Toggle(displayIndex, duration)

	resp := ToggleResponse{
		Outcome:         string(result.Outcome),
		DurationSeconds: int(result.Duration.Seconds()),
		Reason:          string(result.Reason),
	}
	s.writeJSON(w, toggleStatusCode(result), resp)
}

func toggleStatusCode(result controller.Result) int {
	if result.Outcome != controller.OutcomeRejected {
		return http.StatusOK
	}
	switch result.Reason {
	case controller.ReasonInvalidStation:
		return http.StatusNotFound
	case controller.ReasonInvalidDuration:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.device.Snapshot())
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.journal == nil {
		s.writeJSON(w, http.StatusOK, []journal.Entry{})
		return
	}
	entries, err := s.journal.Recent(journalPageSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read journal")
		s.writeError(w, http.StatusInternalServerError, "Failed to read journal")
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode API response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
