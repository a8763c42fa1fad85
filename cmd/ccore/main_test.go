// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFromArg(t *testing.T) {
	src, err := sourceFromArg("https://example.com/doc")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/doc", src.URL)
	assert.Empty(t, src.FilePath)

	src, err = sourceFromArg("http://example.com")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", src.URL)

	src, err = sourceFromArg("/tmp/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/report.pdf", src.FilePath)
	assert.Empty(t, src.URL)

	src, err = sourceFromArg("relative/note.txt")
	require.NoError(t, err)
	assert.Equal(t, "relative/note.txt", src.FilePath)
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("timeout_seconds: 120\n"), 0o600))
	assert.Equal(t, 0, runValidate([]string{"-f", good}))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("no_such_key: true\n"), 0o600))
	assert.Equal(t, 1, runValidate([]string{"-f", bad}))

	assert.Equal(t, 1, runValidate([]string{"-f", filepath.Join(dir, "missing.yaml")}))
}

func TestRunValidateRequiresFile(t *testing.T) {
	t.Setenv("CCORE_CONFIG_FILE", "")
	assert.Equal(t, 2, runValidate(nil))
}

func TestRunExtractUsageErrors(t *testing.T) {
	assert.Equal(t, 2, runExtract(nil), "missing source argument")
	assert.Equal(t, 2, runExtract([]string{"a", "b"}), "too many arguments")
}
