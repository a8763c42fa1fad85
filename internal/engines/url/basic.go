// SPDX-License-Identifier: MIT

package url

import (
	"context"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/registry"
	"github.com/ManuGH/ccore/internal/retry"
)

// Basic scrapes a page with a plain GET and isolates the main content
// locally. It needs no credentials or local binaries and anchors the
// cascade as the engine of last resort.
type Basic struct {
	policy config.Retry
}

func NewBasic(policy config.Retry) *Basic {
	return &Basic{policy: policy}
}

func (p *Basic) Name() string { return "basic" }

func (p *Basic) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes: []string{content.MimeHTML},
		Priority:  40,
		Category:  content.CategoryURLs,
	}
}

func (p *Basic) Available() bool { return true }

func (p *Basic) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.URL == "" {
		return nil, exterr.New(exterr.KindValidation, "basic engine requires a url source")
	}

	var body, finalURL string
	err := retry.Do(ctx, p.policy, "basic fetch", func() error {
		var ferr error
		body, finalURL, ferr = fetchPage(ctx, src.URL)
		return ferr
	})
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}

	pg, err := parsePage(finalURL, body)
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
