// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/registry"
)

type staticChecker struct {
	name   string
	result CheckResult
}

func (c staticChecker) Name() string                      { return c.name }
func (c staticChecker) Check(context.Context) CheckResult { return c.result }

func TestManagerNoCheckers(t *testing.T) {
	status, checks := NewManager().Run(context.Background())
	assert.Equal(t, StatusHealthy, status)
	assert.Nil(t, checks)
}

func TestManagerAggregation(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			for i, s := range tt.statuses {
				m.Register(staticChecker{name: string(rune('a' + i)), result: CheckResult{Status: s}})
			}

			status, checks := m.Run(context.Background())
			assert.Equal(t, tt.want, status)
			assert.Len(t, checks, len(tt.statuses))
		})
	}
}

type probeEngine struct {
	name  string
	avail bool
}

func (p probeEngine) Name() string { return p.name }

func (p probeEngine) Capabilities() registry.Capabilities {
	return registry.Capabilities{MIMETypes: []string{content.MimePlain}, Priority: 50, Category: content.CategoryText}
}

func (p probeEngine) Available() bool { return p.avail }

func (p probeEngine) Extract(context.Context, *content.Source, map[string]any) (*content.Result, error) {
	return content.NewResult("ok", content.MimePlain), nil
}

func buildRegistry(t *testing.T, engines ...probeEngine) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	for _, e := range engines {
		require.NoError(t, b.Register(e))
	}
	return b.Build()
}

func TestEnginesChecker(t *testing.T) {
	t.Run("all available", func(t *testing.T) {
		reg := buildRegistry(t, probeEngine{"alpha", true}, probeEngine{"beta", true})
		res := NewEnginesChecker(reg).Check(context.Background())
		assert.Equal(t, StatusHealthy, res.Status)
		assert.Equal(t, "2 engines available", res.Message)
	})

	t.Run("partially available", func(t *testing.T) {
		reg := buildRegistry(t, probeEngine{"alpha", true}, probeEngine{"beta", false})
		res := NewEnginesChecker(reg).Check(context.Background())
		assert.Equal(t, StatusDegraded, res.Status)
		assert.Equal(t, "1 of 2 engines available", res.Message)
	})

	t.Run("none available", func(t *testing.T) {
		reg := buildRegistry(t, probeEngine{"alpha", false})
		res := NewEnginesChecker(reg).Check(context.Background())
		assert.Equal(t, StatusUnhealthy, res.Status)
		assert.Equal(t, "no extraction engines available", res.Error)
	})

	t.Run("empty registry", func(t *testing.T) {
		reg := buildRegistry(t)
		res := NewEnginesChecker(reg).Check(context.Background())
		assert.Equal(t, StatusUnhealthy, res.Status)
	})
}

func TestWorkspaceChecker(t *testing.T) {
	res := NewWorkspaceChecker().Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, "scratch space writable", res.Message)
}

func TestWorkspaceCheckerUnwritableTemp(t *testing.T) {
	t.Setenv("TMPDIR", "/nonexistent/scratch")

	res := NewWorkspaceChecker().Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.NotEmpty(t, res.Error)
}
