// SPDX-License-Identifier: MIT

// Package url implements the web extraction cascade: the hosted Firecrawl
// and Jina reader APIs, a headless Chromium renderer and a plain HTTP
// scraper. All four return main-content markdown with the page title when
// recoverable; the router falls through the cascade by priority.
package url

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http/httpproxy"

	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
)

const (
	// fetchTimeout bounds one direct page download.
	fetchTimeout = 10 * time.Second
	// apiTimeout bounds one hosted reader call; remote scraping of a heavy
	// page is slower than a direct fetch.
	apiTimeout = 60 * time.Second
	// errSnippet bounds how much of an upstream error body lands in messages.
	errSnippet = 200

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

	// metaFinalURL records the URL after redirects, which is what the
	// extracted content actually describes.
	metaFinalURL = "final_url"
)

// webClient is shared by the direct-fetch engines. The default transport
// routes through the standard proxy environment variables.
var webClient = &http.Client{}

// fetchPage downloads a page with a browser user agent and returns the body
// together with the post-redirect URL.
func fetchPage(ctx context.Context, pageURL string) (body, finalURL string, err error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", exterr.Wrap(exterr.KindValidation, "build page request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := webClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", "", exterr.Wrap(exterr.KindNetwork, fmt.Sprintf("fetch %s", pageURL), err)
	}
	defer resp.Body.Close()

	if kind := exterr.FromHTTPStatus(resp.StatusCode); kind != "" {
		return "", "", exterr.Newf(kind, "fetch %s: status %d", pageURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", exterr.Wrap(exterr.KindNetwork, fmt.Sprintf("read %s", pageURL), err)
	}
	return string(raw), resp.Request.URL.String(), nil
}

// readSnippet drains up to errSnippet bytes for error messages.
func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, errSnippet))
	return string(b)
}

// proxyFromEnv returns the configured HTTPS or HTTP proxy, preferring HTTPS.
func proxyFromEnv() string {
	cfg := httpproxy.FromEnvironment()
	if cfg.HTTPSProxy != "" {
		return cfg.HTTPSProxy
	}
	return cfg.HTTPProxy
}

// proxyNote logs, once per engine, that a hosted API fetches the target from
// its own network, so a local proxy only covers the API call itself.
type proxyNote struct {
	once sync.Once
}

func (n *proxyNote) log(ctx context.Context, engine string) {
	if proxyFromEnv() == "" {
		return
	}
	n.once.Do(func() {
		logger := log.WithComponentFromContext(ctx, "url")
		logger.Info().
			Str(log.FieldEngine, engine).
			Msg("proxy configured, but the hosted api fetches the target from its own network")
	})
}
