// SPDX-License-Identifier: MIT

// Package content defines the shared value types of the extraction core:
// sources, processor results, categories and MIME helpers. Every engine and
// the router speak in these types; none of them carry behaviour beyond
// validation and small accessors.
package content

import (
	"strings"
)

// Category groups MIME types into coarse engine families.
type Category string

const (
	CategoryDocuments Category = "documents"
	CategoryURLs      Category = "urls"
	CategoryAudio     Category = "audio"
	CategoryVideo     Category = "video"
	CategoryImages    Category = "images"
	CategoryText      Category = "text"
	CategoryYouTube   Category = "youtube"
)

// Well-known MIME identifiers. MimeYouTube is a pseudo type assigned by the
// source classifier to YouTube URLs so the resolver can special-case them.
const (
	MimePDF      = "application/pdf"
	MimeEPUB     = "application/epub+zip"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimePPTX     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimeHTML     = "text/html"
	MimePlain    = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeYouTube  = "youtube"
)

// Metadata keys stamped into results.
const (
	MetaEngine        = "extraction_engine"
	MetaSource        = "source"
	MetaTitle         = "title"
	MetaTime          = "extractionTime"
	MetaContentLength = "contentLength"
)

// MatchesMime reports whether pattern covers mime. A pattern is either an
// exact MIME type or a wildcard like "image/*" that matches every subtype
// sharing the prefix.
func MatchesMime(pattern, mime string) bool {
	if pattern == mime {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		rest, hasSlash := strings.CutPrefix(mime, prefix+"/")
		return hasSlash && rest != ""
	}
	return false
}

// WildcardOf returns the wildcard form of a specific MIME type
// ("audio/mpeg" -> "audio/*"). Types without a slash map to themselves.
func WildcardOf(mime string) string {
	if i := strings.IndexByte(mime, '/'); i > 0 {
		return mime[:i] + "/*"
	}
	return mime
}

// Result is the output of a single processor invocation. Metadata always
// carries MetaEngine once the router has stamped it; engines fill in title,
// source and timing where known.
type Result struct {
	Content  string
	MimeType string
	Metadata map[string]any
	Warnings []string
}

// NewResult constructs a Result with an allocated metadata map.
func NewResult(body, mimeType string) *Result {
	return &Result{
		Content:  body,
		MimeType: mimeType,
		Metadata: map[string]any{},
	}
}

// Meta sets a metadata entry, allocating the map when needed, and returns the
// result for chaining.
func (r *Result) Meta(key string, value any) *Result {
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	r.Metadata[key] = value
	return r
}

// Warn appends a warning message.
func (r *Result) Warn(msg string) *Result {
	r.Warnings = append(r.Warnings, msg)
	return r
}

// ExtractionResult is the externally visible outcome of a routed extraction.
type ExtractionResult struct {
	Content    string         `json:"content"`
	SourceType string         `json:"source_type"`
	EngineUsed string         `json:"engine_used"`
	MimeType   string         `json:"mime_type,omitempty"`
	Metadata   map[string]any `json:"metadata"`
	Warnings   []string       `json:"warnings,omitempty"`
}
