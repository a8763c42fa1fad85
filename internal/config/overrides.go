// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"sort"
	"strings"
	"sync"
)

// Programmatic overrides take precedence over process environment.
// They exist so embedders and tests can parameterize extraction without
// mutating the process environment.
var (
	overrideMu sync.RWMutex
	overrides  map[string]string
)

// SetOverride pins key to value for all subsequent configuration reads.
// It shadows the process environment until ClearOverrides is called.
func SetOverride(key, value string) {
	overrideMu.Lock()
	defer overrideMu.Unlock()
	if overrides == nil {
		overrides = make(map[string]string)
	}
	overrides[key] = value
}

// ClearOverrides removes all programmatic overrides.
func ClearOverrides() {
	overrideMu.Lock()
	defer overrideMu.Unlock()
	overrides = nil
}

// Lookup resolves key against programmatic overrides first, then the
// process environment.
func Lookup(key string) (string, bool) {
	overrideMu.RLock()
	v, ok := overrides[key]
	overrideMu.RUnlock()
	if ok {
		return v, true
	}
	return os.LookupEnv(key)
}

// environKeys returns all known configuration keys with the given prefix,
// merging overrides and the process environment, sorted for determinism.
func environKeys(prefix string) []string {
	seen := make(map[string]struct{})

	overrideMu.RLock()
	for k := range overrides {
		if strings.HasPrefix(k, prefix) {
			seen[k] = struct{}{}
		}
	}
	overrideMu.RUnlock()

	for _, kv := range os.Environ() {
		k, _, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, prefix) {
			seen[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
