// File: diag/server.go
// Author: momentics <momentics@gmail.com>
//
// A tiny HTTP surface over Registry/Probes, for operators — never wired
// onto a reactor's own goroutine. Router shape grounded on
// govoltron-voltron/adapter/http.go's "embed a chi.Router, let the caller
// own Start/Stop" pattern.
package diag

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Server exposes Registry and Probes over HTTP.
type Server struct {
	Registry *Registry
	Probes   *Probes

	router chi.Router
	http   *http.Server
}

// NewServer wires routes for /metrics and /debug over the given Registry
// and Probes onto addr. Call Serve to start accepting.
func NewServer(addr string, reg *Registry, probes *Probes) *Server {
	s := &Server{Registry: reg, Probes: probes}
	r := chi.NewRouter()
	r.Get("/metrics", s.handleMetrics)
	r.Get("/debug", s.handleDebug)
	r.Get("/healthz", s.handleHealth)
	s.router = r
	s.http = &http.Server{Addr: addr, Handler: r}
	return s
}

// Serve blocks accepting connections until the server is shut down.
func (s *Server) Serve() error {
	return s.http.ListenAndServe()
}

// Close shuts the HTTP server down immediately.
func (s *Server) Close() error {
	return s.http.Close()
}

func (s *Server) handleMetrics(w http.ResponseWriter, req *http.Request) {
	values, updated := s.Registry.Snapshot()
	writeJSON(w, map[string]any{
		"metrics": values,
		"updated": updated.Format(time.RFC3339Nano),
	})
}

func (s *Server) handleDebug(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, s.Probes.Dump())
}

func (s *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
