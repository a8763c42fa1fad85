// SPDX-License-Identifier: MIT

// Package health aggregates component probes into a readiness verdict.
// Checkers run on every /ready request; the HTTP layer maps the verdict
// to a status code.
package health

import "context"

// Status grades a component or the service as a whole.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult is the outcome of one component probe.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Checker probes one component. Implementations must be safe for
// concurrent use and return quickly; a slow probe stalls every
// readiness poll.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs registered checkers and folds their results into an
// overall status.
type Manager struct {
	checkers []Checker
}

func NewManager() *Manager {
	return &Manager{}
}

// Register adds a checker. Register everything during startup; the
// manager is not safe to mutate once it serves traffic.
func (m *Manager) Register(c Checker) {
	m.checkers = append(m.checkers, c)
}

// Run executes all checkers. Any unhealthy component makes the service
// unhealthy; degraded components downgrade the verdict but keep the
// service serving.
func (m *Manager) Run(ctx context.Context) (Status, map[string]CheckResult) {
	if len(m.checkers) == 0 {
		return StatusHealthy, nil
	}

	status := StatusHealthy
	checks := make(map[string]CheckResult, len(m.checkers))
	for _, c := range m.checkers {
		res := c.Check(ctx)
		checks[c.Name()] = res

		switch res.Status {
		case StatusUnhealthy:
			status = StatusUnhealthy
		case StatusDegraded:
			if status == StatusHealthy {
				status = StatusDegraded
			}
		}
	}
	return status, checks
}
