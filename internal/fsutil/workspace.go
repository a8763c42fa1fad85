// SPDX-License-Identifier: MIT

package fsutil

import (
	"os"
	"sync"
)

// Workspace is a scoped temp directory for intermediate artifacts (demuxed
// audio, segments, downloads). Close removes the directory and everything in
// it; every acquisition path must pair with a deferred Close so artifacts
// never outlive the request, including on failure and cancellation.
type Workspace struct {
	root string

	closeOnce sync.Once
	closeErr  error
}

// NewWorkspace creates a fresh directory under the system temp root. The
// purpose tag ends up in the directory name for post-mortem triage.
func NewWorkspace(purpose string) (*Workspace, error) {
	root, err := os.MkdirTemp("", "ccore-"+purpose+"-*")
	if err != nil {
		return nil, err
	}
	return &Workspace{root: root}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string { return w.root }

// Path confines name under the workspace root and returns the full path.
// The file itself is not created.
func (w *Workspace) Path(name string) (string, error) {
	return ConfineRelPath(w.root, name)
}

// Close removes the workspace recursively. Safe to call more than once.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = os.RemoveAll(w.root)
	})
	return w.closeErr
}
