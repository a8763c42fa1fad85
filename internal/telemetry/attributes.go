// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared across spans so dashboards can aggregate without
// per-call-site spellings.
const (
	// Extraction attributes
	ExtractSourceKey  = "extract.source"
	ExtractMimeKey    = "extract.mime"
	ExtractEngineKey  = "extract.engine"
	ExtractEnginesKey = "extract.engines"
	ExtractCharsKey   = "extract.chars"
	ExtractWarnsKey   = "extract.warnings"

	// Audio attributes
	AudioSegmentsKey    = "audio.segments"
	AudioConcurrencyKey = "audio.concurrency"

	// Error attributes
	ErrorKey     = "error"
	ErrorKindKey = "error.kind"
)

// ExtractionAttributes describes a routed request at span start.
func ExtractionAttributes(source, mime string, engines []string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ExtractSourceKey, source),
		attribute.String(ExtractMimeKey, mime),
		attribute.StringSlice(ExtractEnginesKey, engines),
	}
}

// ResultAttributes describes the winning engine's output.
func ResultAttributes(engine string, chars, warnings int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ExtractEngineKey, engine),
		attribute.Int(ExtractCharsKey, chars),
		attribute.Int(ExtractWarnsKey, warnings),
	}
}

// AudioAttributes describes a transcription fan-out.
func AudioAttributes(segments, concurrency int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AudioSegmentsKey, segments),
		attribute.Int(AudioConcurrencyKey, concurrency),
	}
}

// ErrorAttributes marks a span failed with the classified kind.
func ErrorAttributes(kind string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorKindKey, kind),
	}
}
