// SPDX-License-Identifier: MIT

package registry

import (
	"fmt"
	"slices"
	"sort"
)

// UnknownOptions returns one warning per option key the engine does not
// recognize. Engines append these to their result warnings so callers see
// ignored options without the call failing.
func UnknownOptions(engine string, opts map[string]any, known ...string) []string {
	if len(opts) == 0 {
		return nil
	}
	var out []string
	for k := range opts {
		if !slices.Contains(known, k) {
			out = append(out, fmt.Sprintf("%s: unknown option %q ignored", engine, k))
		}
	}
	sort.Strings(out)
	return out
}

// IntOption reads an integer engine option, tolerating the float64 values a
// JSON request body produces.
func IntOption(opts map[string]any, key string, def int) int {
	switch v := opts[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// BoolOption reads a boolean engine option.
func BoolOption(opts map[string]any, key string, def bool) bool {
	if v, ok := opts[key].(bool); ok {
		return v
	}
	return def
}

// StringOption reads a string engine option.
func StringOption(opts map[string]any, key, def string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return def
}

// IntListOption reads a list of integers, tolerating []any with float64
// elements from JSON. A missing or malformed value yields nil.
func IntListOption(opts map[string]any, key string) []int {
	switch vs := opts[key].(type) {
	case []int:
		return slices.Clone(vs)
	case []any:
		out := make([]int, 0, len(vs))
		for _, v := range vs {
			switch n := v.(type) {
			case int:
				out = append(out, n)
			case int64:
				out = append(out, int(n))
			case float64:
				out = append(out, int(n))
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}
