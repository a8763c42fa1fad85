// SPDX-License-Identifier: MIT

package exterr

import (
	"fmt"
	"strings"
)

// Attempt records the terminal outcome of one engine in a routed chain.
type Attempt struct {
	Engine  string `json:"engine"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// ChainError is the composite failure returned when every engine in the
// resolved chain failed. Attempts preserve chain order.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s: %s", a.Engine, a.Kind, a.Message))
	}
	return fmt.Sprintf("all %d engines failed: %s", len(e.Attempts), strings.Join(parts, "; "))
}

// SegmentError describes one failed audio segment.
type SegmentError struct {
	Index int    `json:"index"`
	Kind  Kind   `json:"kind"`
	Msg   string `json:"message"`
}

// TranscriptionError aggregates per-segment failures from the audio
// pipeline. Successful sibling segments are not listed; the pipeline always
// lets them finish before returning this error.
type TranscriptionError struct {
	Segments []SegmentError
}

func (e *TranscriptionError) Error() string {
	if len(e.Segments) == 1 {
		s := e.Segments[0]
		return fmt.Sprintf("transcription failed for segment %d: %s: %s", s.Index, s.Kind, s.Msg)
	}
	parts := make([]string, 0, len(e.Segments))
	for _, s := range e.Segments {
		parts = append(parts, fmt.Sprintf("segment %d: %s: %s", s.Index, s.Kind, s.Msg))
	}
	return fmt.Sprintf("transcription failed for %d segments: %s", len(e.Segments), strings.Join(parts, "; "))
}
