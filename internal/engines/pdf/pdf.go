// SPDX-License-Identifier: MIT

// Package pdf implements the PDF and EPUB document engines. The plain engine
// assembles page text geometrically and appends detected tables; the markdown
// variant additionally infers headings from the font-size distribution.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/registry"
)

// defaultFormulaThreshold is the number of undecodable glyphs at which a
// document is reported as formula heavy.
const defaultFormulaThreshold = 3

// Processor is the plain-text PDF engine. The name is the config vocabulary
// callers already use to select it.
type Processor struct{}

func New() *Processor { return &Processor{} }

func (p *Processor) Name() string { return "pymupdf" }

func (p *Processor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes:  []string{content.MimePDF, content.MimeEPUB},
		Extensions: []string{".pdf", ".epub"},
		Priority:   50,
		Category:   content.CategoryDocuments,
	}
}

func (p *Processor) Available() bool { return true }

func (p *Processor) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.FilePath == "" {
		return nil, exterr.New(exterr.KindValidation, "pdf extraction requires a file path")
	}

	warnings := registry.UnknownOptions(p.Name(), opts, "formula_threshold")

	if isEPUB(src) {
		return extractEPUB(src.FilePath, warnings)
	}

	pages, err := loadPages(src.FilePath)
	if err != nil {
		return nil, err
	}

	var raw strings.Builder
	for _, pg := range pages {
		raw.WriteString(renderPage(pg))
		raw.WriteByte('\n')
	}
	text := CleanText(raw.String())

	res := content.NewResult(text, content.MimePlain).Meta("pages", len(pages))
	for _, w := range warnings {
		res.Warn(w)
	}

	threshold := registry.IntOption(opts, "formula_threshold", defaultFormulaThreshold)
	if n := strings.Count(text, "�"); threshold > 0 && n >= threshold {
		log.WithComponentFromContext(ctx, "pymupdf").Warn().
			Int("undecoded_glyphs", n).Str(log.FieldSource, src.FilePath).
			Msg("document appears formula heavy")
		res.Meta("formula_placeholders", n).
			Warn(fmt.Sprintf("%d glyphs could not be decoded; the docling engine performs OCR and may recover them", n))
	}

	return res, nil
}

// renderPage joins the assembled rows and appends detected tables in
// markdown form, each introduced by a position marker.
func renderPage(pg pageContent) string {
	var b strings.Builder
	for i, l := range pg.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(joinFragments(l.frags))
	}
	for i, rows := range detectTables(pg.lines) {
		fmt.Fprintf(&b, "\n\n[Table %d from page %d]\n%s\n", i+1, pg.number, tableMarkdown(rows))
	}
	return b.String()
}

func isEPUB(src *content.Source) bool {
	if src.MimeType == content.MimeEPUB {
		return true
	}
	return strings.EqualFold(filepath.Ext(src.FilePath), ".epub")
}
