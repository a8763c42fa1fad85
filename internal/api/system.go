// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ManuGH/ccore/internal/health"
	"github.com/ManuGH/ccore/internal/metrics"
)

// engineInfo is one entry in the engine catalog response.
type engineInfo struct {
	Name       string   `json:"name"`
	Available  bool     `json:"available"`
	Reason     string   `json:"reason,omitempty"`
	MIMETypes  []string `json:"mime_types"`
	Extensions []string `json:"extensions,omitempty"`
	Priority   int      `json:"priority"`
	Category   string   `json:"category"`
	Requires   []string `json:"requires,omitempty"`
}

// handleEngines reports the engine catalog with probed availability. By
// default only available engines are listed; include_unavailable=true adds
// the rest with the missing requirement as the reason.
func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	includeUnavailable := r.URL.Query().Get("include_unavailable") == "true"

	engines := make([]engineInfo, 0, len(s.reg.All()))
	for _, p := range s.reg.All() {
		caps := p.Capabilities()
		available := s.reg.IsAvailable(p.Name())
		metrics.RecordEngineAvailability(p.Name(), available)
		if !available && !includeUnavailable {
			continue
		}
		info := engineInfo{
			Name:       p.Name(),
			Available:  available,
			MIMETypes:  caps.MIMETypes,
			Extensions: caps.Extensions,
			Priority:   caps.Priority,
			Category:   string(caps.Category),
			Requires:   caps.Requires,
		}
		if !available {
			info.Reason = unavailabilityReason(caps.Requires)
		}
		engines = append(engines, info)
	}
	sort.SliceStable(engines, func(i, j int) bool {
		return engines[i].Priority > engines[j].Priority
	})

	writeJSON(w, http.StatusOK, map[string]any{"engines": engines})
}

// unavailabilityReason names the requirement a disabled engine is missing.
func unavailabilityReason(requires []string) string {
	if len(requires) == 0 {
		return "not available"
	}
	return fmt.Sprintf("requires %s", strings.Join(requires, ", "))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

// handleReady gates on the daemon lifecycle first, then on component
// checks. Degraded components keep the endpoint green so a single broken
// engine does not pull the instance out of rotation.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "starting"})
		return
	}

	status, checks := s.checks.Run(r.Context())
	resp := map[string]any{"status": "ready", "checks": checks}
	code := http.StatusOK
	switch status {
	case health.StatusDegraded:
		resp["status"] = "degraded"
	case health.StatusUnhealthy:
		resp["status"] = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
