// SPDX-License-Identifier: MIT

// Package api exposes the extraction service over HTTP: one JSON endpoint
// for url/path/raw-content sources, a multipart endpoint for uploads, the
// engine catalog and the operational surface (health, readiness, metrics).
package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/health"
	"github.com/ManuGH/ccore/internal/registry"
)

// Default per-IP budget for the extraction routes. Extractions are
// expensive; the window is deliberately tight.
const (
	defaultRateLimit  = 60
	defaultRateWindow = time.Minute
)

// Server routes extraction requests against a sealed engine registry and
// the current config snapshot. Config is re-read per request so hot
// reloads apply without a restart.
type Server struct {
	holder  *config.Holder
	reg     *registry.Registry
	checks  *health.Manager
	version string

	rateLimit  int
	rateWindow time.Duration

	ready     atomic.Bool
	startTime time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithRateLimit overrides the per-IP request budget on /api/v1. A limit of
// zero disables rate limiting.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = limit
		s.rateWindow = window
	}
}

func NewServer(holder *config.Holder, reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		holder:     holder,
		reg:        reg,
		version:    "dev",
		rateLimit:  defaultRateLimit,
		rateWindow: defaultRateWindow,
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.checks = health.NewManager()
	s.checks.Register(health.NewEnginesChecker(reg))
	s.checks.Register(health.NewWorkspaceChecker())

	return s
}

// SetReady flips the readiness gate. The daemon arms it once the listener
// is up and disarms it during shutdown.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

// Handler assembles the router with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(recoverer)
	r.Use(otelHTTP("ccore"))
	r.Use(httpMetrics)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(rateLimiter(s.rateLimit, s.rateWindow))
		}
		r.Post("/extract", s.handleExtract)
		r.Post("/extract/file", s.handleExtractFile)
		r.Get("/engines", s.handleEngines)
	})

	return r
}
