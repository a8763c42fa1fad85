// SPDX-License-Identifier: MIT

package url

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/registry"
	"github.com/ManuGH/ccore/internal/retry"
)

const jinaReaderBase = "https://r.jina.ai"

// Jina reads pages through the r.jina.ai reader, which returns markdown
// with an optional "Title:" header line. The reader works without a key;
// a JINA_API_KEY raises its rate limits.
type Jina struct {
	base   string
	policy config.Retry
	note   proxyNote
}

func NewJina(policy config.Retry) *Jina {
	return &Jina{base: jinaReaderBase, policy: policy}
}

func (p *Jina) Name() string { return "jina" }

func (p *Jina) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes: []string{content.MimeHTML},
		Priority:  60,
		Category:  content.CategoryURLs,
	}
}

func (p *Jina) Available() bool { return true }

func (p *Jina) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.URL == "" {
		return nil, exterr.New(exterr.KindValidation, "jina engine requires a url source")
	}
	p.note.log(ctx, p.Name())

	var text string
	err := retry.Do(ctx, p.policy, "jina read", func() error {
		var ferr error
		text, ferr = p.read(ctx, src.URL)
		return ferr
	})
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}

	title, body := splitTitleHeader(text)
	res := content.NewResult(body, content.MimeMarkdown)
	res.Meta(metaFinalURL, src.URL)
	if title != "" {
		res.Meta(content.MetaTitle, title)
	}
	for _, w := range registry.UnknownOptions(p.Name(), opts) {
		res.Warn(w)
	}
	return res, nil
}

// read performs one reader call.
func (p *Jina) read(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/"+pageURL, nil)
	if err != nil {
		return "", exterr.Wrap(exterr.KindValidation, "build reader request", err)
	}
	if key := config.ParseString("JINA_API_KEY", ""); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := webClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", exterr.Wrap(exterr.KindNetwork, fmt.Sprintf("read %s", pageURL), err)
	}
	defer resp.Body.Close()

	if kind := exterr.FromHTTPStatus(resp.StatusCode); kind != "" {
		return "", exterr.Newf(kind, "jina reader: status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", exterr.Wrap(exterr.KindNetwork, "read reader response", err)
	}
	return string(raw), nil
}

// splitTitleHeader peels the reader's "Title: ..." first line off the body.
// Responses without the header come back whole, with no title.
func splitTitleHeader(text string) (title, body string) {
	rest, ok := strings.CutPrefix(text, "Title:")
	if !ok {
		return "", text
	}
	idx := strings.IndexByte(rest, '\n')
	if idx < 0 {
		return "", text
	}
	return strings.TrimSpace(rest[:idx]), strings.TrimSpace(rest[idx+1:])
}
