// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/ccore/internal/log"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config for the YAML overlay. Pointer fields
// distinguish "absent" from "zero" so the file only overrides what it
// names.
type FileConfig struct {
	DocumentEngine  *string             `yaml:"document_engine"`
	URLEngine       *string             `yaml:"url_engine"`
	MIMEEngines     map[string][]string `yaml:"mime_engines"`
	CategoryEngines map[string][]string `yaml:"category_engines"`

	Fallback *struct {
		Enabled     *bool    `yaml:"enabled"`
		MaxAttempts *int     `yaml:"max_attempts"`
		OnError     *string  `yaml:"on_error"`
		FatalErrors []string `yaml:"fatal_errors"`
	} `yaml:"fallback"`

	Audio *struct {
		Provider    *string `yaml:"provider"`
		Model       *string `yaml:"model"`
		Concurrency *int    `yaml:"concurrency"`
	} `yaml:"audio"`

	YouTube *struct {
		Languages []string `yaml:"languages"`
	} `yaml:"youtube"`

	Retries *struct {
		YouTube    *fileRetry `yaml:"youtube"`
		URLAPI     *fileRetry `yaml:"url_api"`
		URLNetwork *fileRetry `yaml:"url_network"`
		Audio      *fileRetry `yaml:"audio"`
		Download   *fileRetry `yaml:"download"`
	} `yaml:"retries"`

	TimeoutSeconds *int `yaml:"timeout_seconds"`

	Docling *struct {
		BaseURL        *string `yaml:"base_url"`
		APIKey         *string `yaml:"api_key"`
		TimeoutSeconds *int    `yaml:"timeout_seconds"`
		OCR            *bool   `yaml:"ocr"`
		TableMode      *string `yaml:"table_mode"`
		OutputFormat   *string `yaml:"output_format"`
	} `yaml:"docling"`

	FirecrawlBaseURL *string `yaml:"firecrawl_base_url"`
}

type fileRetry struct {
	MaxAttempts *int     `yaml:"max_attempts"`
	BaseDelay   *float64 `yaml:"base_delay"` // seconds
	MaxDelay    *float64 `yaml:"max_delay"`  // seconds
}

// Loader builds the effective Config with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
}

// NewLoader creates a new configuration loader. An empty configPath
// means ENV-only configuration.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load loads configuration with precedence: ENV > File > Defaults.
// It enforces strict order: Parse File (Strict) -> Apply Env -> Validate.
func (l *Loader) Load() (Config, error) {
	warnRemovedEnvKeys()

	cfg := Default()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(cfg *Config, file *FileConfig) {
	if file == nil {
		return
	}

	if file.DocumentEngine != nil {
		cfg.DocumentEngine = *file.DocumentEngine
	}
	if file.URLEngine != nil {
		cfg.URLEngine = *file.URLEngine
	}
	for mime, chain := range file.MIMEEngines {
		cfg.MIMEEngines[mime] = append([]string(nil), chain...)
	}
	for category, chain := range file.CategoryEngines {
		cfg.CategoryEngines[category] = append([]string(nil), chain...)
	}

	if fb := file.Fallback; fb != nil {
		if fb.Enabled != nil {
			cfg.Fallback.Enabled = *fb.Enabled
		}
		if fb.MaxAttempts != nil {
			cfg.Fallback.MaxAttempts = *fb.MaxAttempts
		}
		if fb.OnError != nil {
			cfg.Fallback.OnError = OnError(*fb.OnError)
		}
		if fb.FatalErrors != nil {
			cfg.Fallback.FatalErrors = append([]string(nil), fb.FatalErrors...)
		}
	}

	if a := file.Audio; a != nil {
		if a.Provider != nil {
			cfg.Audio.Provider = *a.Provider
		}
		if a.Model != nil {
			cfg.Audio.Model = *a.Model
		}
		if a.Concurrency != nil {
			cfg.Audio.Concurrency = *a.Concurrency
		}
	}

	if yt := file.YouTube; yt != nil && yt.Languages != nil {
		cfg.YouTube.Languages = append([]string(nil), yt.Languages...)
	}

	if r := file.Retries; r != nil {
		mergeFileRetry(&cfg.Retries.YouTube, r.YouTube)
		mergeFileRetry(&cfg.Retries.URLAPI, r.URLAPI)
		mergeFileRetry(&cfg.Retries.URLNetwork, r.URLNetwork)
		mergeFileRetry(&cfg.Retries.Audio, r.Audio)
		mergeFileRetry(&cfg.Retries.Download, r.Download)
	}

	if file.TimeoutSeconds != nil {
		cfg.TimeoutSeconds = *file.TimeoutSeconds
	}

	if d := file.Docling; d != nil {
		if d.BaseURL != nil {
			cfg.Docling.BaseURL = *d.BaseURL
		}
		if d.APIKey != nil {
			cfg.Docling.APIKey = *d.APIKey
		}
		if d.TimeoutSeconds != nil {
			cfg.Docling.TimeoutSeconds = *d.TimeoutSeconds
		}
		if d.OCR != nil {
			cfg.Docling.OCR = *d.OCR
		}
		if d.TableMode != nil {
			cfg.Docling.TableMode = *d.TableMode
		}
		if d.OutputFormat != nil {
			cfg.Docling.OutputFormat = *d.OutputFormat
		}
	}

	if file.FirecrawlBaseURL != nil {
		cfg.FirecrawlBaseURL = *file.FirecrawlBaseURL
	}
}

func mergeFileRetry(dst *Retry, src *fileRetry) {
	if src == nil {
		return
	}
	if src.MaxAttempts != nil {
		dst.MaxAttempts = *src.MaxAttempts
	}
	if src.BaseDelay != nil {
		dst.BaseDelay = time.Duration(*src.BaseDelay * float64(time.Second))
	}
	if src.MaxDelay != nil {
		dst.MaxDelay = time.Duration(*src.MaxDelay * float64(time.Second))
	}
}

// warnRemovedEnvKeys flags environment variables from earlier releases
// that are no longer honored.
func warnRemovedEnvKeys() {
	logger := log.WithComponent("config")
	for _, key := range []string{"CCORE_CONFIG_PATH", "CCORE_MODEL_CONFIG_PATH"} {
		if _, ok := os.LookupEnv(key); ok {
			logger.Warn().
				Str("key", key).
				Msg("environment variable is deprecated and ignored; use CCORE_CONFIG_FILE")
		}
	}
}
