// SPDX-License-Identifier: MIT

package url

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
)

func TestHeadlessCapabilities(t *testing.T) {
	p := NewHeadless(fastRetry)
	caps := p.Capabilities()
	assert.Equal(t, 55, caps.Priority)
	assert.Equal(t, content.CategoryURLs, caps.Category)
	assert.Contains(t, caps.Requires, "chromium")
}

func TestHeadlessRequiresURL(t *testing.T) {
	p := NewHeadless(fastRetry)
	_, err := p.Extract(context.Background(), &content.Source{Content: "raw"}, nil)
	require.Error(t, err)
	assert.Equal(t, exterr.KindValidation, exterr.KindOf(err))
}

func TestFindBrowserEmptyPath(t *testing.T) {
	t.Setenv("PATH", "")
	assert.Equal(t, "", findBrowser())
}

// TestHeadlessRender exercises the full browser path and only runs where a
// browser is installed.
func TestHeadlessRender(t *testing.T) {
	if findBrowser() == "" {
		t.Skip("no chromium binary on PATH")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	p := NewHeadless(fastRetry)
	res, err := p.Extract(context.Background(), &content.Source{URL: srv.URL}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "furry windshield")
	assert.Equal(t, "Field Recording Basics", res.Metadata[content.MetaTitle])
}
