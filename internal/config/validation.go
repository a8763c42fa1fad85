// SPDX-License-Identifier: MIT

package config

import (
	"github.com/ManuGH/ccore/internal/validate"
)

// Validate validates a Config using the centralized validation package.
// Audio concurrency is deliberately not checked here: the audio pipeline
// validates the range per call so the warning lands on the result.
func Validate(cfg Config) error {
	v := validate.New()

	v.Range("fallback.max_attempts", cfg.Fallback.MaxAttempts, MinMaxAttempts, MaxMaxAttempts)
	v.OneOf("fallback.on_error", string(cfg.Fallback.OnError), []string{
		string(OnErrorNext), string(OnErrorWarn), string(OnErrorFail),
	})

	v.Range("timeout_seconds", cfg.TimeoutSeconds, MinTimeoutSeconds, MaxTimeoutSeconds)

	v.URL("docling.base_url", cfg.Docling.BaseURL, []string{"http", "https"})
	v.Range("docling.timeout_seconds", cfg.Docling.TimeoutSeconds, MinTimeoutSeconds, MaxTimeoutSeconds)
	v.OneOf("docling.table_mode", cfg.Docling.TableMode, []string{"accurate", "fast"})
	v.OneOf("docling.output_format", cfg.Docling.OutputFormat, []string{"markdown", "html", "json"})

	v.URL("firecrawl_base_url", cfg.FirecrawlBaseURL, []string{"http", "https"})

	validateRetry(v, "retries.youtube", cfg.Retries.YouTube)
	validateRetry(v, "retries.url_api", cfg.Retries.URLAPI)
	validateRetry(v, "retries.url_network", cfg.Retries.URLNetwork)
	validateRetry(v, "retries.audio", cfg.Retries.Audio)
	validateRetry(v, "retries.download", cfg.Retries.Download)

	if !v.IsValid() {
		return v.Err()
	}

	return nil
}

func validateRetry(v *validate.Validator, field string, r Retry) {
	v.Range(field+".max_attempts", r.MaxAttempts, 1, 20)
	if r.BaseDelay <= 0 {
		v.AddError(field+".base_delay", "must be positive", r.BaseDelay)
	}
	if r.MaxDelay < r.BaseDelay {
		v.AddError(field+".max_delay", "must be >= base_delay", r.MaxDelay)
	}
}
