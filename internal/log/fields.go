// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldEngine    = "engine"
	FieldAttempt   = "attempt"
	FieldSegment   = "segment"

	// Source fields
	FieldMime     = "mime"
	FieldCategory = "category"
	FieldSource   = "source"
	FieldURL      = "url"
	FieldPath     = "path"
)
