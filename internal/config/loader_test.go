// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoaderEnvOnly(t *testing.T) {
	t.Setenv("CCORE_FALLBACK_MAX_ATTEMPTS", "5")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Fallback.MaxAttempts)
	assert.Equal(t, DefaultTimeoutSeconds, cfg.TimeoutSeconds)
}

func TestLoaderFileApplied(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", `
document_engine: docling
timeout_seconds: 120
fallback:
  max_attempts: 4
  on_error: next
audio:
  concurrency: 2
retries:
  youtube:
    max_attempts: 7
    base_delay: 0.5
`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "docling", cfg.DocumentEngine)
	assert.Equal(t, 120, cfg.TimeoutSeconds)
	assert.Equal(t, 4, cfg.Fallback.MaxAttempts)
	assert.Equal(t, OnErrorNext, cfg.Fallback.OnError)
	assert.Equal(t, 2, cfg.Audio.Concurrency)
	assert.Equal(t, 7, cfg.Retries.YouTube.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retries.YouTube.BaseDelay)
	// untouched values keep defaults
	assert.True(t, cfg.Fallback.Enabled)
	assert.Equal(t, DefaultSTTProvider, cfg.Audio.Provider)
}

func TestLoaderEnvBeatsFile(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", `
timeout_seconds: 120
document_engine: docling
`)
	t.Setenv("CCORE_EXTRACTION_TIMEOUT", "60")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.TimeoutSeconds)
	assert.Equal(t, "docling", cfg.DocumentEngine)
}

func TestLoaderMIMEChainsFromFile(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", `
mime_engines:
  application/pdf: [docling, pymupdf]
category_engines:
  urls: [jina, basic]
`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"docling", "pymupdf"}, cfg.MIMEEngines["application/pdf"])
	assert.Equal(t, []string{"jina", "basic"}, cfg.CategoryEngines["urls"])
}

func TestLoaderRejectsUnknownFields(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", `
document_engine: docling
bouquet: premium
`)

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict config parse error")
}

func TestLoaderRejectsNonYAML(t *testing.T) {
	path := writeConfigFile(t, "ccore.toml", `document_engine = "docling"`)

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLoaderRejectsInvalidValues(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", `
fallback:
  on_error: explode
`)

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoaderEmptyFile(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", "")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultTimeoutSeconds, cfg.TimeoutSeconds)
}

func TestLoaderRejectsMultipleDocuments(t *testing.T) {
	path := writeConfigFile(t, "ccore.yaml", "timeout_seconds: 60\n---\ntimeout_seconds: 90\n")

	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.Error(t, err)
}
