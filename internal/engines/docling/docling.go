// SPDX-License-Identifier: MIT

// Package docling implements the rich remote document pipeline: documents
// and images are converted by a docling-serve peer, which runs OCR, table
// structure recovery and formula enrichment the local engines cannot.
package docling

import (
	"context"
	"sync"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/registry"
)

// Formats the serve pipeline accepts. Plain text is deliberately absent;
// the text engine owns it.
var supportedMIMEs = []string{
	content.MimePDF,
	content.MimeDOCX,
	content.MimeXLSX,
	content.MimePPTX,
	content.MimeMarkdown,
	"text/x-markdown",
	"text/csv",
	content.MimeHTML,
	"image/png",
	"image/jpeg",
	"image/tiff",
	"image/bmp",
}

var supportedExtensions = []string{
	".pdf", ".docx", ".xlsx", ".pptx", ".md", ".csv",
	".html", ".htm", ".png", ".jpg", ".jpeg", ".tiff", ".bmp",
}

// Processor converts documents through a docling-serve peer.
type Processor struct {
	cfg config.Docling
	cl  *client

	availOnce sync.Once
	avail     bool
}

func New(cfg config.Docling) *Processor {
	return &Processor{cfg: cfg, cl: newClient(cfg, "docling")}
}

func (p *Processor) Name() string { return "docling" }

func (p *Processor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes:  supportedMIMEs,
		Extensions: supportedExtensions,
		Priority:   60,
		Requires:   []string{"docling-serve"},
		Category:   content.CategoryDocuments,
	}
}

// Available reports whether the configured peer answers its health probe.
// Probed once; the registry memoizes the answer for the process lifetime.
func (p *Processor) Available() bool {
	p.availOnce.Do(func() {
		p.avail = p.cfg.BaseURL != "" && p.cl.healthy()
	})
	return p.avail
}

func (p *Processor) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return extract(ctx, p.Name(), p.cl, p.cfg, src, opts, convertOptions{
		pipeline: registry.StringOption(opts, "pipeline", "standard"),
	})
}

// extract is the shared conversion path for both serve-backed engines. The
// caller fixes pipeline and picture settings; everything else comes from
// options and config.
func extract(ctx context.Context, engine string, cl *client, cfg config.Docling, src *content.Source, opts map[string]any, co convertOptions) (*content.Result, error) {
	format := outputFormat(src, opts, cfg)
	co.toFormats = []string{serveFormat(format)}
	if co.pictureDesc {
		// Captions ride along in the structured export.
		co.toFormats = append(co.toFormats, "json")
	}
	co.ocr = registry.BoolOption(opts, "ocr", cfg.OCR)
	co.tableMode = registry.StringOption(opts, "table_mode", cfg.TableMode)

	doc, err := cl.convert(ctx, src, co)
	if err != nil {
		return nil, exterr.WithEngine(engine, err)
	}

	body := doc.pick(serveFormat(format))
	log.WithComponentFromContext(ctx, engine).Debug().
		Int("chars", len(body)).Str("format", format).Msg("document converted")

	res := content.NewResult(body, resultMime(format)).Meta("docling_format", format)
	for _, w := range registry.UnknownOptions(engine, opts,
		"output_format", "ocr", "table_mode", "pipeline",
		"picture_description", "picture_description_model", "picture_description_prompt") {
		res.Warn(w)
	}

	if co.pictureDesc {
		if captions := captionTexts(doc.JSON); len(captions) > 0 {
			res.Meta("picture_descriptions", captions)
		}
	}
	return res, nil
}

// outputFormat resolves the export format: per-request field, then engine
// option, then configuration.
func outputFormat(src *content.Source, opts map[string]any, cfg config.Docling) string {
	if src.OutputFormat != "" {
		return src.OutputFormat
	}
	return registry.StringOption(opts, "output_format", cfg.OutputFormat)
}
