// SPDX-License-Identifier: MIT

// Package stt provides speech-to-text transcription behind a provider
// interface. The audio pipeline feeds it MP3 segments and joins the
// returned text.
package stt

import (
	"context"
	"strings"

	"github.com/ManuGH/ccore/internal/exterr"
)

// Transcriber converts one audio file to text.
type Transcriber interface {
	// Transcribe uploads the file at path and returns the transcript.
	// Errors are classified: rate_limit and network are retryable, auth
	// and validation are not.
	Transcribe(ctx context.Context, path string) (string, error)
}

// New returns the transcriber for a provider and model pair. The model is
// passed through to the provider unvalidated; unknown models surface as
// request errors.
func New(provider, model string) (Transcriber, error) {
	switch strings.ToLower(provider) {
	case "openai":
		return newOpenAI(model), nil
	default:
		return nil, exterr.Newf(exterr.KindValidation, "unsupported speech-to-text provider %q", provider)
	}
}
