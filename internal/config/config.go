// SPDX-License-Identifier: MIT

package config

import (
	"time"
)

// OnError controls how the extraction router reacts to a failed engine.
type OnError string

const (
	// OnErrorNext moves to the next engine silently.
	OnErrorNext OnError = "next"
	// OnErrorWarn moves to the next engine and records a warning.
	OnErrorWarn OnError = "warn"
	// OnErrorFail aborts the chain on the first failure.
	OnErrorFail OnError = "fail"
)

// Valid reports whether v is a recognized on-error policy.
func (v OnError) Valid() bool {
	switch v {
	case OnErrorNext, OnErrorWarn, OnErrorFail:
		return true
	}
	return false
}

// Fallback controls multi-engine fallback behavior in the router.
type Fallback struct {
	Enabled     bool     `yaml:"enabled"`
	MaxAttempts int      `yaml:"max_attempts"` // engines tried per request, [1,10]
	OnError     OnError  `yaml:"on_error"`
	FatalErrors []string `yaml:"fatal_errors"` // error kinds that always abort the chain
}

// Audio holds transcription tuning for the audio pipeline.
type Audio struct {
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	Concurrency int    `yaml:"concurrency"` // segment tasks in flight, [1,10]
}

// YouTube holds transcript language preferences.
type YouTube struct {
	Languages []string `yaml:"languages"` // preference order for caption tracks
}

// Retry tunes exponential backoff for one class of transient failures.
type Retry struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
}

// RetryPolicy groups the per-class retry tunings.
type RetryPolicy struct {
	YouTube    Retry `yaml:"youtube"`
	URLAPI     Retry `yaml:"url_api"`
	URLNetwork Retry `yaml:"url_network"`
	Audio      Retry `yaml:"audio"`
	Download   Retry `yaml:"download"`
}

// Docling configures the remote docling-serve converter.
type Docling struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	OCR            bool   `yaml:"ocr"`
	TableMode      string `yaml:"table_mode"`    // accurate | fast
	OutputFormat   string `yaml:"output_format"` // markdown | html | json
}

// Config is the effective extraction configuration for one request.
// Values come from defaults, an optional YAML file and the environment;
// a populated Config is treated as immutable.
type Config struct {
	// Legacy single-engine selectors.
	DocumentEngine string `yaml:"document_engine"`
	URLEngine      string `yaml:"url_engine"`

	// Engine chains keyed by exact or wildcard MIME type.
	MIMEEngines map[string][]string `yaml:"mime_engines"`
	// Engine chains keyed by processor category.
	CategoryEngines map[string][]string `yaml:"category_engines"`

	// Per-engine opaque options (output format and similar).
	EngineOptions map[string]map[string]any `yaml:"engine_options"`

	Fallback Fallback    `yaml:"fallback"`
	Audio    Audio       `yaml:"audio"`
	YouTube  YouTube     `yaml:"youtube"`
	Retries  RetryPolicy `yaml:"retries"`

	// TimeoutSeconds is the overall budget for one extraction, [1,3600].
	TimeoutSeconds int `yaml:"timeout_seconds"`

	Docling Docling `yaml:"docling"`
	// Firecrawl API endpoint (hosted or self-managed).
	FirecrawlBaseURL string `yaml:"firecrawl_base_url"`
}

// Defaults for router, audio and timeout behavior.
const (
	DefaultTimeoutSeconds   = 300
	MinTimeoutSeconds       = 1
	MaxTimeoutSeconds       = 3600
	DefaultMaxAttempts      = 3
	MinMaxAttempts          = 1
	MaxMaxAttempts          = 10
	DefaultAudioConcurrency = 3
	MinAudioConcurrency     = 1
	MaxAudioConcurrency     = 10
	DefaultSTTProvider      = "openai"
	DefaultSTTModel         = "gpt-4o-transcribe-diarize"
	DefaultDoclingBaseURL   = "http://localhost:5001"
	DefaultDoclingTimeout   = 120
	DefaultFirecrawlBaseURL = "https://api.firecrawl.dev"
)

// DefaultFatalErrors lists error kinds that abort the fallback chain
// regardless of policy.
func DefaultFatalErrors() []string {
	return []string{"file_not_found", "permission", "validation", "fatal_internal"}
}

// DefaultYouTubeLanguages is the caption language preference when unset.
func DefaultYouTubeLanguages() []string {
	return []string{"en", "es", "pt"}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DocumentEngine:  "auto",
		URLEngine:       "auto",
		MIMEEngines:     map[string][]string{},
		CategoryEngines: map[string][]string{},
		EngineOptions:   map[string]map[string]any{},
		Fallback: Fallback{
			Enabled:     true,
			MaxAttempts: DefaultMaxAttempts,
			OnError:     OnErrorWarn,
			FatalErrors: DefaultFatalErrors(),
		},
		Audio: Audio{
			Provider:    DefaultSTTProvider,
			Model:       DefaultSTTModel,
			Concurrency: DefaultAudioConcurrency,
		},
		YouTube: YouTube{
			Languages: DefaultYouTubeLanguages(),
		},
		Retries:        DefaultRetryPolicy(),
		TimeoutSeconds: DefaultTimeoutSeconds,
		Docling: Docling{
			BaseURL:        DefaultDoclingBaseURL,
			TimeoutSeconds: DefaultDoclingTimeout,
			OCR:            true,
			TableMode:      "accurate",
			OutputFormat:   "markdown",
		},
		FirecrawlBaseURL: DefaultFirecrawlBaseURL,
	}
}

// DefaultRetryPolicy mirrors the built-in backoff tuning per failure class.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		YouTube:    Retry{MaxAttempts: 5, BaseDelay: 2 * time.Second, MaxDelay: 60 * time.Second},
		URLAPI:     Retry{MaxAttempts: 3, BaseDelay: 1 * time.Second, MaxDelay: 30 * time.Second},
		URLNetwork: Retry{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second},
		Audio:      Retry{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second},
		Download:   Retry{MaxAttempts: 3, BaseDelay: 1 * time.Second, MaxDelay: 15 * time.Second},
	}
}

// Timeout returns the overall extraction budget as a duration.
func (c Config) Timeout() time.Duration {
	secs := c.TimeoutSeconds
	if secs < MinTimeoutSeconds {
		secs = DefaultTimeoutSeconds
	}
	if secs > MaxTimeoutSeconds {
		secs = MaxTimeoutSeconds
	}
	return time.Duration(secs) * time.Second
}

// Clone returns a deep copy so callers can derive variants without
// mutating a shared snapshot.
func (c Config) Clone() Config {
	out := c
	out.MIMEEngines = cloneChains(c.MIMEEngines)
	out.CategoryEngines = cloneChains(c.CategoryEngines)
	if c.EngineOptions != nil {
		out.EngineOptions = make(map[string]map[string]any, len(c.EngineOptions))
		for engine, opts := range c.EngineOptions {
			m := make(map[string]any, len(opts))
			for k, v := range opts {
				m[k] = v
			}
			out.EngineOptions[engine] = m
		}
	}
	if c.Fallback.FatalErrors != nil {
		out.Fallback.FatalErrors = append([]string(nil), c.Fallback.FatalErrors...)
	}
	if c.YouTube.Languages != nil {
		out.YouTube.Languages = append([]string(nil), c.YouTube.Languages...)
	}
	return out
}

func cloneChains(in map[string][]string) map[string][]string {
	if in == nil {
		return nil
	}
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// IsFatal reports whether the given error kind is configured as fatal.
func (f Fallback) IsFatal(kind string) bool {
	for _, k := range f.FatalErrors {
		if k == kind {
			return true
		}
	}
	return false
}
