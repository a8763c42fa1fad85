// SPDX-License-Identifier: MIT

// Package exterr defines the error taxonomy of the extraction core. Engines
// return classified errors, the router decides fallback behaviour from the
// Kind, and the API layer maps kinds onto HTTP statuses. Wrapping keeps the
// original cause reachable through errors.Is/As.
package exterr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
)

// Kind is a stable error-kind token. The tokens double as the values allowed
// in the fallback fatal-error configuration.
type Kind string

const (
	KindEngineNotFound    Kind = "engine_not_found"
	KindEngineUnavailable Kind = "engine_unavailable"
	KindNoEngine          Kind = "no_engine_available"
	KindNetwork           Kind = "network"
	KindRateLimit         Kind = "rate_limit"
	KindAuth              Kind = "auth"
	KindNotFound          Kind = "not_found"
	KindParse             Kind = "parse"
	KindUnsupported       Kind = "unsupported_content"
	KindTimeout           Kind = "timeout"
	KindCancelled         Kind = "cancelled"
	KindTranscription     Kind = "transcription"
	KindBlocked           Kind = "blocked"
	KindEmptyCaptions     Kind = "empty_captions"
	KindCaptionGeneration Kind = "caption_generation"
	KindValidation        Kind = "validation"
	KindFileNotFound      Kind = "file_not_found"
	KindPermission        Kind = "permission"
	KindExtraction        Kind = "extraction"
	KindFatal             Kind = "fatal_internal"
)

// Retryable reports whether an engine-internal retry can reasonably succeed.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindRateLimit
}

// Error is a classified extraction error.
type Error struct {
	Kind   Kind
	Engine string // engine that produced the error, when known
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Engine != "" {
		b.WriteString(e.Engine)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a classified error without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// WithEngine returns a copy of the error annotated with the engine name. Non
// classified errors are wrapped under KindOf(err).
func WithEngine(engine string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		if cp.Engine == "" {
			cp.Engine = engine
		}
		return &cp
	}
	return &Error{Kind: KindOf(err), Engine: engine, Err: err}
}

// KindOf classifies an arbitrary error. Classified errors report their own
// kind; context and filesystem errors map to the matching kinds; transport
// failures map to network. Everything else is a generic extraction failure.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var te *TranscriptionError
	if errors.As(err, &te) {
		return KindTranscription
	}
	var ce *ChainError
	if errors.As(err, &ce) {
		return KindExtraction
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, fs.ErrNotExist):
		return KindFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	return KindExtraction
}

// FromHTTPStatus maps an upstream HTTP status to an error kind. 2xx maps to
// the empty kind.
func FromHTTPStatus(status int) Kind {
	switch {
	case status >= 200 && status < 300:
		return ""
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusNotFound || status == http.StatusGone:
		return KindNotFound
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindNetwork
	default:
		return KindExtraction
	}
}
