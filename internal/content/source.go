// SPDX-License-Identifier: MIT

package content

import (
	"fmt"
	"strings"
)

// SourceKind identifies which origin field of a Source is populated.
type SourceKind string

const (
	SourceURL     SourceKind = "url"
	SourceFile    SourceKind = "file"
	SourceContent SourceKind = "content"
)

// Source is an immutable extraction request. Exactly one of URL, FilePath or
// Content must be set. The remaining fields are optional hints; the zero
// value of each means "not specified".
type Source struct {
	URL      string
	FilePath string
	Content  string

	// MimeType is the caller-declared type. When empty the classifier
	// sniffs it from the path, the payload or the URL shape.
	MimeType string

	// Engines overrides resolution entirely when non-empty: the chain is
	// used verbatim and unknown names fail before any I/O.
	Engines []string

	// OutputFormat requests markdown (default), html or json from document
	// engines that support more than one representation.
	OutputFormat string

	// Audio overrides. Provider and Model are only honoured as a pair.
	AudioProvider    string
	AudioModel       string
	AudioConcurrency int

	// Options holds request-level engine options, merged over the
	// config-level options of whichever engine runs.
	Options map[string]any

	// TimeoutSeconds overrides the configured extraction budget.
	TimeoutSeconds int
}

// Kind returns the populated origin. Call Validate first; Kind on an invalid
// Source returns the first populated field it finds.
func (s *Source) Kind() SourceKind {
	switch {
	case s.URL != "":
		return SourceURL
	case s.FilePath != "":
		return SourceFile
	default:
		return SourceContent
	}
}

// Origin returns a short human-readable description of the source for logs
// and metadata.
func (s *Source) Origin() string {
	switch s.Kind() {
	case SourceURL:
		return s.URL
	case SourceFile:
		return s.FilePath
	default:
		if len(s.Content) > 48 {
			return s.Content[:48] + "..."
		}
		return s.Content
	}
}

// Validate checks the exactly-one-origin rule.
func (s *Source) Validate() error {
	set := 0
	if strings.TrimSpace(s.URL) != "" {
		set++
	}
	if strings.TrimSpace(s.FilePath) != "" {
		set++
	}
	if strings.TrimSpace(s.Content) != "" {
		set++
	}
	switch set {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("source requires one of url, file_path or content")
	default:
		return fmt.Errorf("source must set exactly one of url, file_path or content, got %d", set)
	}
}
