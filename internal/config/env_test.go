// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name     string
		setEnv   bool
		envValue string
		def      string
		want     string
	}{
		{name: "env set", setEnv: true, envValue: "docling", def: "auto", want: "docling"},
		{name: "env unset", setEnv: false, def: "auto", want: "auto"},
		{name: "env empty", setEnv: true, envValue: "", def: "auto", want: "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv("CCORE_TEST_STRING", tt.envValue)
			}
			assert.Equal(t, tt.want, ParseString("CCORE_TEST_STRING", tt.def))
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name     string
		setEnv   bool
		envValue string
		def      int
		want     int
	}{
		{name: "valid int", setEnv: true, envValue: "7", def: 3, want: 7},
		{name: "invalid int", setEnv: true, envValue: "seven", def: 3, want: 3},
		{name: "empty", setEnv: true, envValue: "", def: 3, want: 3},
		{name: "unset", setEnv: false, def: 3, want: 3},
		{name: "negative", setEnv: true, envValue: "-2", def: 3, want: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv("CCORE_TEST_INT", tt.envValue)
			}
			assert.Equal(t, tt.want, ParseInt("CCORE_TEST_INT", tt.def))
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		want     bool
	}{
		{name: "true", envValue: "true", def: false, want: true},
		{name: "one", envValue: "1", def: false, want: true},
		{name: "yes", envValue: "yes", def: false, want: true},
		{name: "false", envValue: "false", def: true, want: false},
		{name: "zero", envValue: "0", def: true, want: false},
		{name: "no", envValue: "no", def: true, want: false},
		{name: "mixed case", envValue: "TRUE", def: false, want: true},
		{name: "garbage", envValue: "maybe", def: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CCORE_TEST_BOOL", tt.envValue)
			assert.Equal(t, tt.want, ParseBool("CCORE_TEST_BOOL", tt.def))
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      time.Duration
		want     time.Duration
	}{
		{name: "seconds", envValue: "5s", def: time.Second, want: 5 * time.Second},
		{name: "minutes", envValue: "2m", def: time.Second, want: 2 * time.Minute},
		{name: "invalid", envValue: "fast", def: time.Second, want: time.Second},
		{name: "empty", envValue: "", def: time.Second, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CCORE_TEST_DURATION", tt.envValue)
			assert.Equal(t, tt.want, ParseDuration("CCORE_TEST_DURATION", tt.def))
		})
	}
}

func TestParseFloat(t *testing.T) {
	t.Setenv("CCORE_TEST_FLOAT", "0.5")
	assert.Equal(t, 0.5, ParseFloat("CCORE_TEST_FLOAT", 1.0))

	t.Setenv("CCORE_TEST_FLOAT", "half")
	assert.Equal(t, 1.0, ParseFloat("CCORE_TEST_FLOAT", 1.0))
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		setEnv   bool
		envValue string
		def      []string
		want     []string
	}{
		{name: "simple", setEnv: true, envValue: "en,es,pt", def: nil, want: []string{"en", "es", "pt"}},
		{name: "spaces trimmed", setEnv: true, envValue: " en , es ", def: nil, want: []string{"en", "es"}},
		{name: "empty entries dropped", setEnv: true, envValue: "en,,pt,", def: nil, want: []string{"en", "pt"}},
		{name: "unset keeps default", setEnv: false, def: []string{"en"}, want: []string{"en"}},
		{name: "blank keeps default", setEnv: true, envValue: "   ", def: []string{"en"}, want: []string{"en"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv("CCORE_TEST_LIST", tt.envValue)
			}
			assert.Equal(t, tt.want, ParseList("CCORE_TEST_LIST", tt.def))
		})
	}
}

func TestOverridesShadowEnvironment(t *testing.T) {
	t.Setenv("CCORE_TEST_OVERRIDE", "from-env")
	t.Cleanup(ClearOverrides)

	assert.Equal(t, "from-env", ParseString("CCORE_TEST_OVERRIDE", "def"))

	SetOverride("CCORE_TEST_OVERRIDE", "from-code")
	assert.Equal(t, "from-code", ParseString("CCORE_TEST_OVERRIDE", "def"))

	ClearOverrides()
	assert.Equal(t, "from-env", ParseString("CCORE_TEST_OVERRIDE", "def"))
}

func TestOverrideWithoutEnv(t *testing.T) {
	t.Cleanup(ClearOverrides)

	SetOverride("CCORE_TEST_ONLY_OVERRIDE", "42")
	assert.Equal(t, 42, ParseInt("CCORE_TEST_ONLY_OVERRIDE", 0))

	v, ok := Lookup("CCORE_TEST_ONLY_OVERRIDE")
	assert.True(t, ok)
	assert.Equal(t, "42", v)
}
