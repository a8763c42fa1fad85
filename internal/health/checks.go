// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"

	"github.com/ManuGH/ccore/internal/fsutil"
	"github.com/ManuGH/ccore/internal/registry"
)

// EnginesChecker reports how much of the engine catalog is usable.
// Availability is memoized by the registry, so repeated polls stay cheap.
type EnginesChecker struct {
	reg *registry.Registry
}

func NewEnginesChecker(reg *registry.Registry) *EnginesChecker {
	return &EnginesChecker{reg: reg}
}

func (c *EnginesChecker) Name() string { return "engines" }

func (c *EnginesChecker) Check(_ context.Context) CheckResult {
	total := len(c.reg.All())
	available := len(c.reg.AvailableEngines())

	switch {
	case total == 0 || available == 0:
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  "no extraction engines available",
		}
	case available < total:
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("%d of %d engines available", available, total),
		}
	default:
		return CheckResult{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%d engines available", available),
		}
	}
}

// WorkspaceChecker verifies scratch space can be provisioned. Uploads and
// intermediate artifacts are staged on disk, so a read-only or full temp
// volume must fail readiness before requests do.
type WorkspaceChecker struct{}

func NewWorkspaceChecker() *WorkspaceChecker { return &WorkspaceChecker{} }

func (c *WorkspaceChecker) Name() string { return "workspace" }

func (c *WorkspaceChecker) Check(_ context.Context) CheckResult {
	ws, err := fsutil.NewWorkspace("healthcheck")
	if err != nil {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  err.Error(),
		}
	}
	_ = ws.Close()
	return CheckResult{
		Status:  StatusHealthy,
		Message: "scratch space writable",
	}
}
