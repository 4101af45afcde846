// Package server exposes the plant graph and simulator over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/felixge/httpsnoop"

	"github.com/msalah0e/h2canvas/internal/api"
	"github.com/msalah0e/h2canvas/internal/graph"
	"github.com/msalah0e/h2canvas/internal/live"
	"github.com/msalah0e/h2canvas/internal/plant"
	"github.com/msalah0e/h2canvas/internal/sim"
)

// Options configures a Server.
type Options struct {
	Sim    sim.Options
	Hub    *live.Hub // optional
	Logger *slog.Logger
}

// Server holds one plant graph shared by every client.
type Server struct {
	mu    sync.Mutex
	graph *graph.Graph

	sim sim.Options
	hub *live.Hub
	log *slog.Logger
}

// New creates a server with an empty plant.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Sim.Ratings == (plant.Defaults{}) {
		opts.Sim.Ratings = plant.DefaultRatings()
	}
	return &Server{
		graph: graph.New(),
		sim:   opts.Sim,
		hub:   opts.Hub,
		log:   logger,
	}
}

// Handler returns the service HTTP handler wrapped in access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(api.PathHealth, s.handleHealth)
	mux.HandleFunc(api.PathAddComponent, s.handleAdd)
	mux.HandleFunc(api.PathConnectComponents, s.handleConnect)
	mux.HandleFunc(api.PathSimulate, s.handleSimulate)
	mux.HandleFunc(api.PathReset, s.handleReset)
	mux.HandleFunc(api.PathGraph, s.handleGraph)
	if s.hub != nil {
		mux.Handle(api.PathLive, s.hub)
	}
	return accessLog(s.log, mux)
}

func accessLog(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req api.AddComponentRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	err := s.graph.AddComponent(req.Name, req.Type)
	s.mu.Unlock()

	name := strings.TrimSpace(req.Name)
	if err != nil {
		status := rejection(err)
		s.log.Info("add rejected", "type", req.Type, "name", name, "reason", err)
		writeJSON(w, api.StatusResponse{Status: status, Name: name, Type: req.Type})
		return
	}

	s.publish(api.Event{Type: api.EventComponentAdded, Name: name, ComponentType: req.Type})
	writeJSON(w, api.StatusResponse{Status: fmt.Sprintf("%s %s %s", req.Type, name, api.AddedMarker)})
}

// rejection maps an add failure to a fixed status. Client-supplied text is
// kept out of it so a rejection can never read as an acknowledgement.
func rejection(err error) string {
	switch {
	case errors.Is(err, graph.ErrExists):
		return api.StatusExists
	case errors.Is(err, graph.ErrUnknownType):
		return api.StatusUnknownType
	case errors.Is(err, graph.ErrNameRequired):
		return api.StatusNameRequired
	}
	return "Component rejected"
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req api.ConnectRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	conn, err := s.graph.Connect(req.Source, req.Target)
	s.mu.Unlock()

	if err != nil {
		s.log.Info("connect rejected", "source", req.Source, "target", req.Target, "error", err)
		writeJSON(w, api.ConnectResponse{Status: api.StatusError, Message: capitalize(err.Error())})
		return
	}

	s.publish(api.Event{Type: api.EventConnected, Source: conn.Source, Target: conn.Target})
	writeJSON(w, api.ConnectResponse{Status: api.StatusConnected, Source: conn.Source, Target: conn.Target})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	s.mu.Lock()
	snapshot := s.graph.Clone()
	s.mu.Unlock()

	start := time.Now()
	report, err := sim.Run(r.Context(), snapshot, s.sim)
	if err != nil {
		if errors.Is(err, sim.ErrNoPoweredElectrolyzer) {
			writeJSON(w, api.SimulateResponse{Status: capitalize(err.Error())})
			return
		}
		s.log.Error("simulation failed", "error", err)
		http.Error(w, fmt.Sprintf("simulation failed: %v", err), http.StatusInternalServerError)
		return
	}
	s.log.Info("simulation complete", "electrolyzers", len(report.Traces), "steps", report.Steps, "elapsed", time.Since(start))

	s.publish(api.Event{Type: api.EventSimulationDone, Status: api.StatusSimulationComplete})
	writeJSON(w, api.SimulateResponse{Status: api.StatusSimulationComplete, Results: &report})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	s.mu.Lock()
	s.graph.Reset()
	s.mu.Unlock()

	s.publish(api.Event{Type: api.EventReset, Status: api.StatusReset})
	writeJSON(w, api.StatusResponse{Status: api.StatusReset})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	snapshot := s.graph.Clone()
	s.mu.Unlock()

	switch r.URL.Query().Get("format") {
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(snapshot.ExportDOT()))
	case "", "json":
		data, err := snapshot.ExportJSON()
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to encode graph: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(data)
	default:
		http.Error(w, "format must be json or dot", http.StatusBadRequest)
	}
}

func (s *Server) publish(ev api.Event) {
	if s.hub != nil {
		s.hub.Publish(ev)
	}
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
