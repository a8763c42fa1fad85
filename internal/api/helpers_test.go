// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/registry"
)

type fakeEngine struct {
	name     string
	mimes    []string
	avail    bool
	prio     int
	requires []string
	extract  func(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error)
}

func textEngine(name string) *fakeEngine {
	return &fakeEngine{name: name, mimes: []string{content.MimePlain}, avail: true, prio: 50}
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes: f.mimes,
		Priority:  f.prio,
		Category:  content.CategoryText,
		Requires:  f.requires,
	}
}

func (f *fakeEngine) Available() bool { return f.avail }

func (f *fakeEngine) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if f.extract != nil {
		return f.extract(ctx, src, opts)
	}
	return content.NewResult("ok from "+f.name, content.MimePlain), nil
}

func newTestServer(t *testing.T, opts []Option, procs ...registry.Processor) *Server {
	t.Helper()
	b := registry.NewBuilder()
	for _, p := range procs {
		b.MustRegister(p)
	}
	holder := config.NewHolder(config.Default(), nil, "")
	return NewServer(holder, b.Build(), opts...)
}

func postJSON(t *testing.T, h http.Handler, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// multipartBody builds an upload request body with one file part and the
// given extra form fields.
func multipartBody(t *testing.T, filename, fileContent string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, fileContent)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
