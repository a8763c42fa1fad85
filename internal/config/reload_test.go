// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolderGetReturnsInitial(t *testing.T) {
	initial := Default()
	initial.TimeoutSeconds = 99

	h := NewHolder(initial, NewLoader(""), "")

	assert.Equal(t, 99, h.Get().TimeoutSeconds)
}

func TestHolderGetReturnsCopy(t *testing.T) {
	initial := Default()
	initial.MIMEEngines["application/pdf"] = []string{"docling"}

	h := NewHolder(initial, NewLoader(""), "")

	got := h.Get()
	got.MIMEEngines["application/pdf"][0] = "mutated"

	assert.Equal(t, []string{"docling"}, h.Get().MIMEEngines["application/pdf"])
}

func TestHolderReloadSwapsConfig(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", "timeout_seconds: 120\n")
	loader := NewLoader(path)

	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader, path)

	require.NoError(t, os.WriteFile(path, []byte("timeout_seconds: 240\n"), 0600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, 240, h.Get().TimeoutSeconds)
}

func TestHolderReloadKeepsOldConfigOnFailure(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", "timeout_seconds: 120\n")
	loader := NewLoader(path)

	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader, path)

	require.NoError(t, os.WriteFile(path, []byte("timeout_seconds: -5\n"), 0600))
	require.Error(t, h.Reload(context.Background()))

	assert.Equal(t, 120, h.Get().TimeoutSeconds)
}

func TestHolderNotifiesListeners(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", "timeout_seconds: 120\n")
	loader := NewLoader(path)

	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader, path)

	ch := make(chan Config, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("timeout_seconds: 180\n"), 0600))
	require.NoError(t, h.Reload(context.Background()))

	select {
	case got := <-ch:
		assert.Equal(t, 180, got.TimeoutSeconds)
	case <-time.After(time.Second):
		t.Fatal("listener was not notified")
	}
}

func TestHolderWatcherDisabledWithoutPath(t *testing.T) {
	h := NewHolder(Default(), NewLoader(""), "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, h.StartWatcher(ctx))
	h.Stop()
}

func TestHolderWatcherReloadsOnWrite(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", "timeout_seconds: 120\n")
	loader := NewLoader(path)

	initial, err := loader.Load()
	require.NoError(t, err)
	h := NewHolder(initial, loader, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, h.StartWatcher(ctx))
	defer h.Stop()

	require.NoError(t, os.WriteFile(path, []byte("timeout_seconds: 300\n"), 0600))

	require.Eventually(t, func() bool {
		return h.Get().TimeoutSeconds == 300
	}, 5*time.Second, 50*time.Millisecond, "watcher did not apply new config")
}
