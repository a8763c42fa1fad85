// SPDX-License-Identifier: MIT

package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/ccore/internal/log"
)

// mimeEnvKeys maps MIME types to CCORE_ENGINE_* variable suffixes.
// Wildcard entries cover every concrete type with the same prefix.
var mimeEnvKeys = map[string]string{
	"application/pdf":      "APPLICATION_PDF",
	"application/epub+zip": "APPLICATION_EPUB",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "APPLICATION_DOCX",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "APPLICATION_XLSX",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "APPLICATION_PPTX",
	"application/msword": "APPLICATION_DOC",
	"text/html":          "TEXT_HTML",
	"text/plain":         "TEXT_PLAIN",
	"text/markdown":      "TEXT_MARKDOWN",
	"image/*":            "IMAGE",
	"audio/*":            "AUDIO",
	"video/*":            "VIDEO",
	"text/*":             "TEXT",
}

// categoryEnvKeys maps processor categories to CCORE_ENGINE_* suffixes.
var categoryEnvKeys = map[string]string{
	"documents": "DOCUMENTS",
	"urls":      "URLS",
	"audio":     "AUDIO",
	"video":     "VIDEO",
	"text":      "TEXT",
}

// MIMEEnvKey returns the full CCORE_ENGINE_* variable name for a MIME type,
// or "" when the type has no mapping.
func MIMEEnvKey(mime string) string {
	if suffix, ok := mimeEnvKeys[mime]; ok {
		return "CCORE_ENGINE_" + suffix
	}
	return ""
}

// CategoryEnvKey returns the full CCORE_ENGINE_* variable name for a
// category, or "" when the category has no mapping.
func CategoryEnvKey(category string) string {
	if suffix, ok := categoryEnvKeys[category]; ok {
		return "CCORE_ENGINE_" + suffix
	}
	return ""
}

// FromEnv builds an effective Config from defaults overlaid with the
// process environment (and any programmatic overrides). The result is a
// per-request snapshot; later environment changes do not affect it.
func FromEnv() Config {
	cfg := Default()
	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	logger := log.WithComponent("config")

	cfg.DocumentEngine = ParseString("CCORE_DOCUMENT_ENGINE", cfg.DocumentEngine)
	cfg.URLEngine = ParseString("CCORE_URL_ENGINE", cfg.URLEngine)

	for mime, suffix := range mimeEnvKeys {
		if raw, ok := Lookup("CCORE_ENGINE_" + suffix); ok {
			if chain := SplitList(raw); len(chain) > 0 {
				cfg.MIMEEngines[mime] = chain
			}
		}
	}
	for category, suffix := range categoryEnvKeys {
		if raw, ok := Lookup("CCORE_ENGINE_" + suffix); ok {
			if chain := SplitList(raw); len(chain) > 0 {
				cfg.CategoryEngines[category] = chain
			}
		}
	}
	warnUnknownEngineKeys()

	cfg.Fallback.Enabled = ParseBool("CCORE_FALLBACK_ENABLED", cfg.Fallback.Enabled)

	if raw, ok := Lookup("CCORE_FALLBACK_MAX_ATTEMPTS"); ok && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= MinMaxAttempts && n <= MaxMaxAttempts {
			cfg.Fallback.MaxAttempts = n
		} else {
			logger.Warn().
				Str("key", "CCORE_FALLBACK_MAX_ATTEMPTS").
				Str("value", raw).
				Int("default", cfg.Fallback.MaxAttempts).
				Msg("invalid fallback max attempts, using default")
		}
	}

	if raw, ok := Lookup("CCORE_FALLBACK_ON_ERROR"); ok && raw != "" {
		policy := OnError(strings.ToLower(strings.TrimSpace(raw)))
		if policy.Valid() {
			cfg.Fallback.OnError = policy
		} else {
			logger.Warn().
				Str("key", "CCORE_FALLBACK_ON_ERROR").
				Str("value", raw).
				Str("default", string(cfg.Fallback.OnError)).
				Msg("invalid fallback policy, using default")
		}
	}

	// Raw value on purpose: the audio pipeline validates the range and
	// surfaces a warning on the result for out-of-range values.
	cfg.Audio.Concurrency = ParseInt("CCORE_AUDIO_CONCURRENCY", cfg.Audio.Concurrency)
	cfg.Audio.Provider = ParseString("CCORE_SPEECH_TO_TEXT_PROVIDER", cfg.Audio.Provider)
	cfg.Audio.Model = ParseString("CCORE_SPEECH_TO_TEXT_MODEL", cfg.Audio.Model)

	cfg.YouTube.Languages = ParseList("CCORE_YOUTUBE_LANGUAGES", cfg.YouTube.Languages)

	if raw, ok := Lookup("CCORE_EXTRACTION_TIMEOUT"); ok && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= MinTimeoutSeconds && n <= MaxTimeoutSeconds {
			cfg.TimeoutSeconds = n
		} else {
			logger.Warn().
				Str("key", "CCORE_EXTRACTION_TIMEOUT").
				Str("value", raw).
				Int("default", cfg.TimeoutSeconds).
				Msg("invalid extraction timeout, using default")
		}
	}

	cfg.Retries.YouTube = retryFromEnv("YOUTUBE", cfg.Retries.YouTube)
	cfg.Retries.URLAPI = retryFromEnv("URL_API", cfg.Retries.URLAPI)
	cfg.Retries.URLNetwork = retryFromEnv("URL_NETWORK", cfg.Retries.URLNetwork)
	cfg.Retries.Audio = retryFromEnv("AUDIO", cfg.Retries.Audio)
	cfg.Retries.Download = retryFromEnv("DOWNLOAD", cfg.Retries.Download)

	cfg.Docling.BaseURL = ParseString("CCORE_DOCLING_SERVE_URL", cfg.Docling.BaseURL)
	cfg.Docling.APIKey = ParseString("CCORE_DOCLING_SERVE_API_KEY", cfg.Docling.APIKey)
	if raw, ok := Lookup("CCORE_DOCLING_SERVE_TIMEOUT"); ok && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= MinTimeoutSeconds && n <= MaxTimeoutSeconds {
			cfg.Docling.TimeoutSeconds = n
		} else {
			logger.Warn().
				Str("key", "CCORE_DOCLING_SERVE_TIMEOUT").
				Str("value", raw).
				Int("default", cfg.Docling.TimeoutSeconds).
				Msg("invalid docling timeout, using default")
		}
	}
	cfg.Docling.OCR = ParseBool("CCORE_DOCLING_DO_OCR", cfg.Docling.OCR)
	cfg.Docling.TableMode = ParseString("CCORE_DOCLING_TABLE_MODE", cfg.Docling.TableMode)
	cfg.Docling.OutputFormat = ParseString("CCORE_DOCLING_OUTPUT_FORMAT", cfg.Docling.OutputFormat)

	cfg.FirecrawlBaseURL = ParseString("FIRECRAWL_API_URL", cfg.FirecrawlBaseURL)
}

// warnUnknownEngineKeys flags CCORE_ENGINE_* variables whose suffix maps
// to no MIME type or category. A typo here would otherwise configure
// nothing, silently.
func warnUnknownEngineKeys() {
	known := make(map[string]struct{}, len(mimeEnvKeys)+len(categoryEnvKeys))
	for _, suffix := range mimeEnvKeys {
		known["CCORE_ENGINE_"+suffix] = struct{}{}
	}
	for _, suffix := range categoryEnvKeys {
		known["CCORE_ENGINE_"+suffix] = struct{}{}
	}
	for _, key := range environKeys("CCORE_ENGINE_") {
		if _, ok := known[key]; !ok {
			logger := log.WithComponent("config")
			logger.Warn().
				Str("key", key).
				Msg("unknown engine variable, no MIME type or category matches")
		}
	}
}

// retryFromEnv overlays CCORE_<TYPE>_MAX_RETRIES, _BASE_DELAY and
// _MAX_DELAY onto the built-in tuning. Out-of-range values keep the
// default and log a warning.
func retryFromEnv(opType string, def Retry) Retry {
	logger := log.WithComponent("config")
	out := def

	key := "CCORE_" + opType + "_MAX_RETRIES"
	if raw, ok := Lookup(key); ok && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= 20 {
			out.MaxAttempts = n
		} else {
			logger.Warn().
				Str("key", key).
				Str("value", raw).
				Int("default", def.MaxAttempts).
				Msg("invalid retry attempts, using default")
		}
	}

	key = "CCORE_" + opType + "_BASE_DELAY"
	if raw, ok := Lookup(key); ok && raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= 0.1 && f <= 60 {
			out.BaseDelay = time.Duration(f * float64(time.Second))
		} else {
			logger.Warn().
				Str("key", key).
				Str("value", raw).
				Dur("default", def.BaseDelay).
				Msg("invalid retry base delay, using default")
		}
	}

	key = "CCORE_" + opType + "_MAX_DELAY"
	if raw, ok := Lookup(key); ok && raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && f >= 1 && f <= 300 {
			out.MaxDelay = time.Duration(f * float64(time.Second))
		} else {
			logger.Warn().
				Str("key", key).
				Str("value", raw).
				Dur("default", def.MaxDelay).
				Msg("invalid retry max delay, using default")
		}
	}

	return out
}
