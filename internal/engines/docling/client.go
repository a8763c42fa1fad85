// SPDX-License-Identifier: MIT

package docling

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/resilience"
)

const (
	healthTimeout = 2 * time.Second
	// bodySnippet bounds how much of an error response lands in messages.
	bodySnippet = 200

	// Breaker settings for the serve peer. Transport failures trip it;
	// while open, requests fail fast so the chain can fall through to
	// local engines instead of waiting out timeouts.
	breakerThreshold = 3
	breakerReset     = 30 * time.Second
)

// client speaks the docling-serve convert API.
type client struct {
	base    string
	apiKey  string
	hc      *http.Client
	breaker *resilience.CircuitBreaker
	// timeout bounds one conversion; the caller's context can be shorter.
	timeout time.Duration
}

func newClient(cfg config.Docling, component string) *client {
	return &client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		hc:      &http.Client{},
		breaker: resilience.NewCircuitBreaker(component, breakerThreshold, breakerReset),
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// convertOptions mirrors the serve API's options object.
type convertOptions struct {
	pipeline          string
	toFormats         []string
	ocr               bool
	tableMode         string
	pictureDesc       bool
	pictureDescriptor *pictureDescriptor
}

// pictureDescriptor selects the caption model and prompt the server runs.
type pictureDescriptor struct {
	RepoID string `json:"repo_id"`
	Prompt string `json:"prompt"`
	// The generation settings keep captions short and deterministic.
	GenerationConfig map[string]any `json:"generation_config"`
}

type serveDocument struct {
	MD   string          `json:"md_content"`
	HTML string          `json:"html_content"`
	Text string          `json:"text_content"`
	JSON json.RawMessage `json:"json_content"`
}

type convertResponse struct {
	Document serveDocument `json:"document"`
	Status   string        `json:"status"`
}

// healthy probes the peer once. A short timeout keeps an unreachable peer
// from stalling availability checks.
func (c *client) healthy() bool {
	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// convert submits one source and returns the converted document.
func (c *client) convert(ctx context.Context, src *content.Source, opts convertOptions) (*serveDocument, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := c.buildPayload(src, opts)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, exterr.Wrap(exterr.KindValidation, "encode convert request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/convert/source", bytes.NewReader(body))
	if err != nil {
		return nil, exterr.Wrap(exterr.KindValidation, "build convert request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	var resp *http.Response
	err = c.breaker.Execute(func() error {
		var doErr error
		resp, doErr = c.hc.Do(req)
		return doErr
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, exterr.New(exterr.KindEngineUnavailable, "docling-serve circuit open")
	}
	if err != nil {
		return nil, exterr.Wrap(exterr.KindOf(err), "docling-serve request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippet))
		kind := exterr.FromHTTPStatus(resp.StatusCode)
		if kind == "" {
			kind = exterr.KindExtraction
		}
		return nil, exterr.Newf(kind, "docling-serve returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, exterr.Wrap(exterr.KindParse, "decode docling-serve response", err)
	}
	return &out.Document, nil
}

func (c *client) buildPayload(src *content.Source, opts convertOptions) (map[string]any, error) {
	options := map[string]any{
		"pipeline":           opts.pipeline,
		"to_formats":         opts.toFormats,
		"do_ocr":             opts.ocr,
		"ocr_engine":         "easyocr",
		"table_mode":         opts.tableMode,
		"do_table_structure": true,
		"do_code_enrichment": false,
		// Formula enrichment is the reason documents get routed here
		// when the local PDF engine reports formula-heavy content.
		"do_formula_enrichment": true,
	}
	if opts.pictureDesc {
		options["do_picture_description"] = true
		options["generate_picture_images"] = true
		if opts.pictureDescriptor != nil {
			options["picture_description_local"] = opts.pictureDescriptor
		}
	}

	var source map[string]any
	switch {
	case src.URL != "":
		source = map[string]any{"kind": "http", "url": src.URL}
	case src.FilePath != "":
		raw, err := os.ReadFile(src.FilePath) // #nosec G304 -- caller-supplied source path
		if err != nil {
			return nil, exterr.Wrap(exterr.KindOf(err), "read source file", err)
		}
		source = map[string]any{
			"kind":          "file",
			"base64_string": base64.StdEncoding.EncodeToString(raw),
			"filename":      filepath.Base(src.FilePath),
		}
	default:
		return nil, exterr.New(exterr.KindValidation, "docling extraction requires a file path or url")
	}

	return map[string]any{"options": options, "sources": []any{source}}, nil
}

// pick returns the document content in the requested serve format, falling
// back through whatever the server did include.
func (d *serveDocument) pick(format string) string {
	byFormat := map[string]string{
		"md":   d.MD,
		"html": d.HTML,
		"text": d.Text,
		"json": string(d.JSON),
	}
	if s := byFormat[format]; s != "" {
		return s
	}
	for _, s := range []string{d.MD, d.Text, d.HTML, string(d.JSON)} {
		if s != "" {
			return s
		}
	}
	return ""
}

// serveFormat maps the engine's output vocabulary onto the serve API's.
func serveFormat(format string) string {
	switch format {
	case "html":
		return "html"
	case "json":
		return "json"
	case "text":
		return "text"
	case "markdown", "md", "":
		return "md"
	default:
		return "md"
	}
}

// captionTexts pulls picture descriptions out of the document's structured
// export. Captions never enter the exported text; callers surface them as
// metadata.
func captionTexts(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var doc struct {
		Pictures []struct {
			Annotations []struct {
				Kind string `json:"kind"`
				Text string `json:"text"`
			} `json:"annotations"`
		} `json:"pictures"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	var texts []string
	for _, pic := range doc.Pictures {
		for _, ann := range pic.Annotations {
			if ann.Kind == "description" && strings.TrimSpace(ann.Text) != "" {
				texts = append(texts, ann.Text)
			}
		}
	}
	return texts
}

func resultMime(format string) string {
	switch format {
	case "html":
		return content.MimeHTML
	case "json":
		return "application/json"
	case "text":
		return content.MimePlain
	default:
		return content.MimeMarkdown
	}
}
