// SPDX-License-Identifier: MIT

package url

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/registry"
	"github.com/ManuGH/ccore/internal/retry"
)

// Firecrawl scrapes pages through the Firecrawl API, which renders the page
// remotely and returns cleaned markdown. It heads the cascade but only runs
// with a FIRECRAWL_API_KEY configured.
type Firecrawl struct {
	base   string
	policy config.Retry
	note   proxyNote
}

func NewFirecrawl(baseURL string, policy config.Retry) *Firecrawl {
	return &Firecrawl{base: strings.TrimRight(baseURL, "/"), policy: policy}
}

func (p *Firecrawl) Name() string { return "firecrawl" }

func (p *Firecrawl) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes: []string{content.MimeHTML},
		Priority:  65,
		Requires:  []string{"FIRECRAWL_API_KEY"},
		Category:  content.CategoryURLs,
	}
}

func (p *Firecrawl) Available() bool {
	return config.ParseString("FIRECRAWL_API_KEY", "") != ""
}

// scrapeRequest is the v2 scrape payload. Both formats are requested so a
// missing markdown rendition can be recovered from the html one.
type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
		Metadata struct {
			Title      string `json:"title"`
			SourceURL  string `json:"sourceURL"`
			StatusCode int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

func (p *Firecrawl) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.URL == "" {
		return nil, exterr.New(exterr.KindValidation, "firecrawl engine requires a url source")
	}
	p.note.log(ctx, p.Name())

	var scraped *scrapeResponse
	err := retry.Do(ctx, p.policy, "firecrawl scrape", func() error {
		var serr error
		scraped, serr = p.scrape(ctx, src.URL)
		return serr
	})
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}

	body := scraped.Data.Markdown
	mime := content.MimeMarkdown
	var warnings []string
	if body == "" && scraped.Data.HTML != "" {
		md, convErr := htmltomarkdown.ConvertString(scraped.Data.HTML)
		if convErr != nil {
			return nil, exterr.WithEngine(p.Name(), exterr.Wrap(exterr.KindParse, "convert scraped html", convErr))
		}
		body = md
		warnings = append(warnings, "markdown missing from scrape result, converted from html")
	}
	if strings.TrimSpace(body) == "" {
		return nil, exterr.WithEngine(p.Name(), exterr.New(exterr.KindParse, "scrape returned no content"))
	}

	finalURL := scraped.Data.Metadata.SourceURL
	if finalURL == "" {
		finalURL = src.URL
	}
	res := content.NewResult(body, mime)
	res.Meta(metaFinalURL, finalURL)
	if scraped.Data.Metadata.Title != "" {
		res.Meta(content.MetaTitle, scraped.Data.Metadata.Title)
	}
	for _, w := range warnings {
		res.Warn(w)
	}
	for _, w := range registry.UnknownOptions(p.Name(), opts) {
		res.Warn(w)
	}
	return res, nil
}

// scrape performs one API call.
func (p *Firecrawl) scrape(ctx context.Context, pageURL string) (*scrapeResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	payload, err := json.Marshal(scrapeRequest{URL: pageURL, Formats: []string{"markdown", "html"}})
	if err != nil {
		return nil, exterr.Wrap(exterr.KindValidation, "encode scrape request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.base+"/v2/scrape", bytes.NewReader(payload))
	if err != nil {
		return nil, exterr.Wrap(exterr.KindValidation, "build scrape request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.ParseString("FIRECRAWL_API_KEY", ""))

	resp, err := webClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, exterr.Wrap(exterr.KindNetwork, "call firecrawl", err)
	}
	defer resp.Body.Close()

	if kind := exterr.FromHTTPStatus(resp.StatusCode); kind != "" {
		return nil, exterr.Newf(kind, "firecrawl: status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}

	var scraped scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&scraped); err != nil {
		return nil, exterr.Wrap(exterr.KindParse, "decode scrape response", err)
	}
	if !scraped.Success {
		msg := scraped.Error
		if msg == "" {
			msg = "scrape reported failure"
		}
		return nil, exterr.New(exterr.KindExtraction, msg)
	}
	return &scraped, nil
}
