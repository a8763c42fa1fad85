// SPDX-License-Identifier: MIT

package url

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
)

func newJinaAt(srvURL string) *Jina {
	p := NewJina(fastRetry)
	p.base = srvURL
	return p
}

func TestJinaParsesTitleHeader(t *testing.T) {
	var sawTarget atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.String(), "example.com") {
			sawTarget.Store(true)
		}
		_, _ = w.Write([]byte("Title: Example Domain\n\nThis domain is for use in examples."))
	}))
	defer srv.Close()

	res, err := newJinaAt(srv.URL).Extract(context.Background(), &content.Source{URL: "https://example.com/"}, nil)
	require.NoError(t, err)

	assert.True(t, sawTarget.Load())
	assert.Equal(t, content.MimeMarkdown, res.MimeType)
	assert.Equal(t, "This domain is for use in examples.", res.Content)
	assert.Equal(t, "Example Domain", res.Metadata[content.MetaTitle])
	assert.Equal(t, "https://example.com/", res.Metadata[metaFinalURL])
}

func TestJinaWithoutTitleHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# Heading\n\nReader output without a title line."))
	}))
	defer srv.Close()

	res, err := newJinaAt(srv.URL).Extract(context.Background(), &content.Source{URL: "https://example.com/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "# Heading\n\nReader output without a title line.", res.Content)
	assert.NotContains(t, res.Metadata, content.MetaTitle)
}

func TestJinaSendsBearerWhenConfigured(t *testing.T) {
	t.Setenv("JINA_API_KEY", "jina-test-key")

	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	_, err := newJinaAt(srv.URL).Extract(context.Background(), &content.Source{URL: "https://example.com/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer jina-test-key", auth.Load())
}

func TestJinaKeylessOmitsAuth(t *testing.T) {
	t.Setenv("JINA_API_KEY", "")

	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	_, err := newJinaAt(srv.URL).Extract(context.Background(), &content.Source{URL: "https://example.com/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "", auth.Load())
}

func TestJinaRetriesRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("Title: Recovered\n\nSecond attempt worked."))
	}))
	defer srv.Close()

	res, err := newJinaAt(srv.URL).Extract(context.Background(), &content.Source{URL: "https://example.com/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Second attempt worked.", res.Content)
	assert.Equal(t, int32(2), hits.Load())
}

func TestJinaNotFoundIsFatal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newJinaAt(srv.URL).Extract(context.Background(), &content.Source{URL: "https://example.com/gone"}, nil)
	require.Error(t, err)
	assert.Equal(t, exterr.KindNotFound, exterr.KindOf(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFirecrawlScrape(t *testing.T) {
	t.Setenv("FIRECRAWL_API_KEY", "fc-test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-test-key", r.Header.Get("Authorization"))

		var reqBody scrapeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "https://example.com/post", reqBody.URL)
		assert.Equal(t, []string{"markdown", "html"}, reqBody.Formats)

		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"markdown": "# Example\n\nScraped body.",
				"html": "<h1>Example</h1>",
				"metadata": {"title": "Example Domain", "sourceURL": "https://example.com/post", "statusCode": 200}
			}
		}`))
	}))
	defer srv.Close()

	p := NewFirecrawl(srv.URL, fastRetry)
	res, err := p.Extract(context.Background(), &content.Source{URL: "https://example.com/post"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "# Example\n\nScraped body.", res.Content)
	assert.Equal(t, content.MimeMarkdown, res.MimeType)
	assert.Equal(t, "Example Domain", res.Metadata[content.MetaTitle])
	assert.Equal(t, "https://example.com/post", res.Metadata[metaFinalURL])
}

func TestFirecrawlAvailability(t *testing.T) {
	p := NewFirecrawl("https://api.firecrawl.dev", fastRetry)

	t.Setenv("FIRECRAWL_API_KEY", "")
	assert.False(t, p.Available())

	t.Setenv("FIRECRAWL_API_KEY", "fc-test-key")
	assert.True(t, p.Available())
}

func TestFirecrawlConvertsHTMLWhenMarkdownMissing(t *testing.T) {
	t.Setenv("FIRECRAWL_API_KEY", "fc-test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"markdown": "",
				"html": "<h1>Recovered</h1><p>From the html rendition.</p>",
				"metadata": {"title": "Recovered"}
			}
		}`))
	}))
	defer srv.Close()

	p := NewFirecrawl(srv.URL, fastRetry)
	res, err := p.Extract(context.Background(), &content.Source{URL: "https://example.com/"}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "# Recovered")
	assert.Contains(t, res.Content, "From the html rendition.")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "converted from html")
}

func TestFirecrawlReportedFailure(t *testing.T) {
	t.Setenv("FIRECRAWL_API_KEY", "fc-test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "error": "url is blocked"}`))
	}))
	defer srv.Close()

	p := NewFirecrawl(srv.URL, fastRetry)
	_, err := p.Extract(context.Background(), &content.Source{URL: "https://example.com/"}, nil)
	require.Error(t, err)
	assert.Equal(t, exterr.KindExtraction, exterr.KindOf(err))
	assert.Contains(t, err.Error(), "url is blocked")
}

func TestFirecrawlAuthRejected(t *testing.T) {
	t.Setenv("FIRECRAWL_API_KEY", "fc-bad-key")

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewFirecrawl(srv.URL, fastRetry)
	_, err := p.Extract(context.Background(), &content.Source{URL: "https://example.com/"}, nil)
	require.Error(t, err)
	assert.Equal(t, exterr.KindAuth, exterr.KindOf(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestFirecrawlEmptyScrape(t *testing.T) {
	t.Setenv("FIRECRAWL_API_KEY", "fc-test-key")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "data": {"markdown": "", "html": ""}}`))
	}))
	defer srv.Close()

	p := NewFirecrawl(srv.URL, fastRetry)
	_, err := p.Extract(context.Background(), &content.Source{URL: "https://example.com/"}, nil)
	require.Error(t, err)
	assert.Equal(t, exterr.KindParse, exterr.KindOf(err))
}

func TestProxyFromEnv(t *testing.T) {
	t.Setenv("HTTP_PROXY", "http://proxy.internal:3128")
	t.Setenv("HTTPS_PROXY", "")
	assert.Equal(t, "http://proxy.internal:3128", proxyFromEnv())

	t.Setenv("HTTPS_PROXY", "http://secure-proxy.internal:3128")
	assert.Equal(t, "http://secure-proxy.internal:3128", proxyFromEnv())
}
