// SPDX-License-Identifier: MIT

package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		target  string
		wantErr string
	}{
		{"simple name", "audio.mp3", ""},
		{"nested name", "segments/part_0.mp3", ""},
		{"self cleaning", "a/../b.txt", ""},
		{"dot prefix", "./c.txt", ""},
		{"traversal", "../outside.txt", "traversal"},
		{"nested traversal", "a/../../outside.txt", "traversal"},
		{"absolute", "/etc/passwd", "must be relative"},
		{"backslash", `seg\part.mp3`, "backslash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineRelPath(root, tt.target)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(got, root), "confined path %q must stay under %q", got, root)
		})
	}
}

func TestConfineRelPathSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "exit")))

	_, err := ConfineRelPath(root, "exit/secret.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes root")
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	assert.NoError(t, IsRegularFile(file))
	assert.Error(t, IsRegularFile(dir))
	assert.Error(t, IsRegularFile(filepath.Join(dir, "missing")))
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0o644))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))

	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0o644))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestWorkspaceLifecycle(t *testing.T) {
	w, err := NewWorkspace("audio")
	require.NoError(t, err)

	info, err := os.Stat(w.Dir())
	require.NoError(t, err)
	require.True(t, info.IsDir())

	seg, err := w.Path("segment_0.mp3")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(seg, []byte("data"), 0o600))

	_, err = w.Path("../escape.mp3")
	require.Error(t, err)

	require.NoError(t, w.Close())
	_, err = os.Stat(w.Dir())
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, w.Close(), "Close is idempotent")
}
