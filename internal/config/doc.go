// SPDX-License-Identifier: MIT

// Package config builds the effective extraction configuration from
// environment variables, an optional YAML file and programmatic overrides.
//
// Precedence: programmatic override > environment > file > defaults.
// Snapshots are immutable; each extraction call works from its own copy.
package config
