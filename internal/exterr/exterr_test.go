// SPDX-License-Identifier: MIT

package exterr

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNetErr satisfies net.Error without opening a socket.
type fakeNetErr struct{ timeout bool }

func (e *fakeNetErr) Error() string   { return "dial tcp: fake failure" }
func (e *fakeNetErr) Timeout() bool   { return e.timeout }
func (e *fakeNetErr) Temporary() bool { return false }

func TestKindRetryable(t *testing.T) {
	assert.True(t, KindNetwork.Retryable())
	assert.True(t, KindRateLimit.Retryable())
	assert.False(t, KindAuth.Retryable())
	assert.False(t, KindTimeout.Retryable())
	assert.False(t, KindNotFound.Retryable())
}

func TestErrorString(t *testing.T) {
	cause := errors.New("connection reset")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", New(KindParse, ""), "parse"},
		{"kind and message", New(KindParse, "bad player json"), "parse: bad player json"},
		{"with engine", &Error{Kind: KindNetwork, Engine: "jina", Msg: "fetch failed"}, "jina: network: fetch failed"},
		{"with cause", Wrap(KindNetwork, "fetch failed", cause), "network: fetch failed: connection reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrapKeepsCauseReachable(t *testing.T) {
	cause := fs.ErrNotExist
	err := Wrap(KindFileNotFound, "open source", cause)

	assert.True(t, errors.Is(err, fs.ErrNotExist))

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, KindFileNotFound, e.Kind)
}

func TestWithEngineAnnotatesClassified(t *testing.T) {
	orig := New(KindRateLimit, "429 from upstream")
	got := WithEngine("firecrawl", orig)

	assert.Equal(t, "firecrawl", got.Engine)
	assert.Equal(t, KindRateLimit, got.Kind)
	// The original stays untouched so shared sentinel errors are safe.
	assert.Empty(t, orig.Engine)
}

func TestWithEngineKeepsFirstEngine(t *testing.T) {
	inner := &Error{Kind: KindNetwork, Engine: "jina", Msg: "fetch failed"}
	got := WithEngine("basic", inner)
	assert.Equal(t, "jina", got.Engine)
}

func TestWithEngineWrapsUnclassified(t *testing.T) {
	got := WithEngine("audio", context.DeadlineExceeded)
	assert.Equal(t, "audio", got.Engine)
	assert.Equal(t, KindTimeout, got.Kind)
	assert.True(t, errors.Is(got, context.DeadlineExceeded))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"classified", New(KindBlocked, "signature required"), KindBlocked},
		{"wrapped classified", fmt.Errorf("outer: %w", New(KindAuth, "no key")), KindAuth},
		{"transcription aggregate", &TranscriptionError{Segments: []SegmentError{{Index: 2}}}, KindTranscription},
		{"chain aggregate", &ChainError{}, KindExtraction},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"cancelled", context.Canceled, KindCancelled},
		{"missing file", fs.ErrNotExist, KindFileNotFound},
		{"permission", fs.ErrPermission, KindPermission},
		{"net timeout", &fakeNetErr{timeout: true}, KindTimeout},
		{"net failure", &fakeNetErr{}, KindNetwork},
		{"plain error", errors.New("boom"), KindExtraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusOK, ""},
		{http.StatusNoContent, ""},
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusNotFound, KindNotFound},
		{http.StatusGone, KindNotFound},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusRequestTimeout, KindTimeout},
		{http.StatusGatewayTimeout, KindTimeout},
		{http.StatusInternalServerError, KindNetwork},
		{http.StatusBadGateway, KindNetwork},
		{http.StatusTeapot, KindExtraction},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, FromHTTPStatus(tt.status))
		})
	}
}

func TestChainErrorMessagePreservesOrder(t *testing.T) {
	err := &ChainError{Attempts: []Attempt{
		{Engine: "firecrawl", Kind: KindAuth, Message: "no key"},
		{Engine: "basic", Kind: KindNetwork, Message: "dial refused"},
	}}
	assert.Equal(t,
		"all 2 engines failed: firecrawl: auth: no key; basic: network: dial refused",
		err.Error())
}

func TestTranscriptionErrorMessage(t *testing.T) {
	one := &TranscriptionError{Segments: []SegmentError{
		{Index: 3, Kind: KindNetwork, Msg: "upload failed"},
	}}
	assert.Equal(t, "transcription failed for segment 3: network: upload failed", one.Error())

	many := &TranscriptionError{Segments: []SegmentError{
		{Index: 0, Kind: KindRateLimit, Msg: "429"},
		{Index: 4, Kind: KindNetwork, Msg: "reset"},
	}}
	assert.Equal(t,
		"transcription failed for 2 segments: segment 0: rate_limit: 429; segment 4: network: reset",
		many.Error())
}
