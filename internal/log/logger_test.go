// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logBuf bytes.Buffer

func TestMain(m *testing.M) {
	Configure(Config{Level: "debug", Output: &logBuf, Service: "ccore-test"})
	os.Exit(m.Run())
}

func lastEntry(t *testing.T) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(logBuf.String()), "\n")
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestConfigureFirstCallerWins(t *testing.T) {
	var other bytes.Buffer
	Configure(Config{Output: &other, Service: "other"})

	Base().Info().Msg("routed to first writer")

	assert.Zero(t, other.Len())
	entry := lastEntry(t)
	assert.Equal(t, "ccore-test", entry["service"])
	assert.Equal(t, "routed to first writer", entry["message"])
}

func TestBaseEmitsServiceAndTimestamp(t *testing.T) {
	Base().Info().Msg("base entry")

	entry := lastEntry(t)
	assert.Equal(t, "ccore-test", entry["service"])
	assert.Contains(t, entry, "time")
	assert.Equal(t, "info", entry["level"])
}

func TestWithComponent(t *testing.T) {
	WithComponent("registry").Debug().Msg("seal")

	entry := lastEntry(t)
	assert.Equal(t, "registry", entry[FieldComponent])
	assert.Equal(t, "seal", entry["message"])
}

func TestDerive(t *testing.T) {
	l := Derive(func(ctx *zerolog.Context) {
		*ctx = ctx.Str(FieldEngine, "jina").Int(FieldAttempt, 2)
	})
	l.Info().Msg("retrying")

	entry := lastEntry(t)
	assert.Equal(t, "jina", entry[FieldEngine])
	assert.Equal(t, float64(2), entry[FieldAttempt])
}

func TestDeriveNilBuilder(t *testing.T) {
	l := Derive(nil)
	l.Info().Msg("no extra fields")

	entry := lastEntry(t)
	assert.Equal(t, "no extra fields", entry["message"])
}
