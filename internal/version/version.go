// SPDX-License-Identifier: MIT

// Package version carries build identity, stamped via ldflags:
//
//	-X github.com/ManuGH/ccore/internal/version.Version=...
package version

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)
