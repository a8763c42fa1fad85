// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
)

func TestExtractEndpointSuccess(t *testing.T) {
	srv := newTestServer(t, nil, textEngine("alpha"))
	h := srv.Handler()

	rec := postJSON(t, h, "/api/v1/extract", `{"content":"hello world"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decodeBody(t, rec)
	assert.Equal(t, "ok from alpha", body["content"])
	assert.Equal(t, "content", body["source_type"])
	assert.Equal(t, "alpha", body["engine_used"])

	meta, ok := body["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alpha", meta["extraction_engine"])
}

func TestExtractEndpointValidation(t *testing.T) {
	srv := newTestServer(t, nil, textEngine("alpha"))
	h := srv.Handler()

	for _, body := range []string{
		`{}`,
		`{"url":"https://example.com","content":"both"}`,
	} {
		rec := postJSON(t, h, "/api/v1/extract", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "validation", decodeBody(t, rec)["kind"])
	}
}

func TestExtractEndpointRejectsUnknownField(t *testing.T) {
	srv := newTestServer(t, nil, textEngine("alpha"))

	rec := postJSON(t, srv.Handler(), "/api/v1/extract", `{"content":"x","bogus":true}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "validation", body["kind"])
	assert.Contains(t, body["error"], "bogus")
}

func TestExtractEndpointMalformedJSON(t *testing.T) {
	srv := newTestServer(t, nil, textEngine("alpha"))

	rec := postJSON(t, srv.Handler(), "/api/v1/extract", `{"content":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeBody(t, rec)["kind"])
}

func TestExtractEndpointUnknownEngine(t *testing.T) {
	srv := newTestServer(t, nil, textEngine("alpha"))

	rec := postJSON(t, srv.Handler(), "/api/v1/extract", `{"content":"x","engine":"nope"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "engine_not_found", decodeBody(t, rec)["kind"])
}

func TestExtractEndpointEngineShorthand(t *testing.T) {
	srv := newTestServer(t, nil, textEngine("alpha"), textEngine("beta"))

	rec := postJSON(t, srv.Handler(), "/api/v1/extract", `{"content":"x","engine":"beta"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "beta", decodeBody(t, rec)["engine_used"])
}

func TestExtractEndpointChainFailure(t *testing.T) {
	bad := textEngine("bad")
	bad.extract = func(context.Context, *content.Source, map[string]any) (*content.Result, error) {
		return nil, exterr.New(exterr.KindNetwork, "connection refused")
	}
	srv := newTestServer(t, nil, bad)

	rec := postJSON(t, srv.Handler(), "/api/v1/extract", `{"content":"x"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "extraction", body["kind"])
	assert.NotEmpty(t, body["request_id"])

	attempts, ok := body["attempts"].([]any)
	require.True(t, ok, "chain failures must carry the attempt record")
	require.Len(t, attempts, 1)
	attempt := attempts[0].(map[string]any)
	assert.Equal(t, "bad", attempt["engine"])
	assert.Equal(t, "network", attempt["kind"])
	assert.Contains(t, attempt["message"], "connection refused")
}

func TestExtractEndpointFatalErrorStatus(t *testing.T) {
	bad := textEngine("bad")
	bad.extract = func(context.Context, *content.Source, map[string]any) (*content.Result, error) {
		return nil, exterr.New(exterr.KindFileNotFound, "no such file")
	}
	srv := newTestServer(t, nil, bad)

	rec := postJSON(t, srv.Handler(), "/api/v1/extract", `{"content":"x"}`)

	// file_not_found is fatal: the engine error surfaces directly instead
	// of a chain summary.
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "file_not_found", body["kind"])
	assert.Empty(t, body["attempts"])
}

func TestExtractEndpointRequestIDPropagated(t *testing.T) {
	srv := newTestServer(t, nil, textEngine("alpha"))
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-abc", decodeBody(t, rec)["request_id"])
}
