// SPDX-License-Identifier: MIT

package url

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/net/http/httpproxy"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/registry"
	"github.com/ManuGH/ccore/internal/retry"
)

// renderTimeout bounds one browser render attempt.
const renderTimeout = 30 * time.Second

// browserBinaries lists the executables accepted as a rendering backend, in
// preference order.
var browserBinaries = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

// findBrowser returns the first usable browser executable, or "".
func findBrowser() string {
	for _, name := range browserBinaries {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// Headless renders pages in a local Chromium before extraction, which
// recovers content from script-driven pages the basic scraper sees empty.
type Headless struct {
	policy config.Retry
}

func NewHeadless(policy config.Retry) *Headless {
	return &Headless{policy: policy}
}

func (p *Headless) Name() string { return "headless" }

func (p *Headless) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes: []string{content.MimeHTML},
		Priority:  55,
		Requires:  []string{"chromium"},
		Category:  content.CategoryURLs,
	}
}

func (p *Headless) Available() bool { return findBrowser() != "" }

func (p *Headless) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.URL == "" {
		return nil, exterr.New(exterr.KindValidation, "headless engine requires a url source")
	}

	var rendered, finalURL string
	err := retry.Do(ctx, p.policy, "headless render", func() error {
		var rerr error
		rendered, finalURL, rerr = renderPage(ctx, src.URL)
		return rerr
	})
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}

	pg, err := parsePage(finalURL, rendered)
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}

	res := content.NewResult(pg.body, pg.mime)
	res.Meta(metaFinalURL, finalURL)
	if pg.title != "" {
		res.Meta(content.MetaTitle, pg.title)
	}
	for _, w := range pg.warnings {
		res.Warn(w)
	}
	for _, w := range registry.UnknownOptions(p.Name(), opts) {
		res.Warn(w)
	}
	return res, nil
}

// renderPage loads the URL in a fresh browser and returns the settled DOM
// and the post-redirect location. Each attempt gets its own browser; a
// wedged render must not poison the next try.
func renderPage(ctx context.Context, pageURL string) (rendered, finalURL string, err error) {
	ctx, cancel := context.WithTimeout(ctx, renderTimeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(findBrowser()),
		chromedp.UserAgent(userAgent),
	)
	if proxy := proxyFromEnv(); proxy != "" {
		opts = append(opts, chromedp.ProxyServer(proxy))
		if noProxy := httpproxy.FromEnvironment().NoProxy; noProxy != "" {
			opts = append(opts, chromedp.Flag("proxy-bypass-list", noProxy))
		}
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	err = chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", "", exterr.Wrap(exterr.KindNetwork, fmt.Sprintf("render %s", pageURL), err)
	}
	if finalURL == "" {
		finalURL = pageURL
	}
	return rendered, finalURL, nil
}
