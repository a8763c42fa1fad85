// SPDX-License-Identifier: MIT

// Package text implements the plain-text engine: file and raw-content
// passthrough, with HTML converted to markdown when the payload carries
// real markup. Text copied out of rendered views often arrives as HTML.
package text

import (
	"context"
	"os"
	"regexp"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/registry"
)

// structuralTags matches tags that indicate real HTML structure. The
// threshold of 2 avoids false positives from a stray <br> in plain text.
var structuralTags = regexp.MustCompile(
	`(?i)<(p|div|h[1-6]|ul|ol|li|strong|em|b|i|a|code|pre|blockquote|table|thead|tbody|tr|td|th|article|section|header|footer|nav|span|br)[^>]*>`,
)

const htmlDetectionThreshold = 2

// hasHTMLStructure reports whether raw contains enough structural tags to
// treat it as markup.
func hasHTMLStructure(raw string) bool {
	return len(structuralTags.FindAllStringIndex(raw, htmlDetectionThreshold)) >= htmlDetectionThreshold
}

// Processor reads text files and raw content.
type Processor struct{}

func New() *Processor { return &Processor{} }

func (p *Processor) Name() string { return "text" }

func (p *Processor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes:  []string{content.MimePlain, content.MimeMarkdown, "text/x-markdown"},
		Extensions: []string{".txt", ".md", ".markdown", ".text"},
		Priority:   50,
		Category:   content.CategoryDocuments,
	}
}

func (p *Processor) Available() bool { return true }

func (p *Processor) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw string
	if src.FilePath != "" {
		b, err := os.ReadFile(src.FilePath) // #nosec G304 -- caller-supplied source path
		if err != nil {
			return nil, exterr.Wrap(exterr.KindOf(err), "read text file", err)
		}
		raw = string(b)
	} else {
		raw = src.Content
	}

	mime := src.MimeType
	if mime == "" {
		mime = content.MimePlain
	}

	res := content.NewResult(raw, mime)
	for _, w := range registry.UnknownOptions(p.Name(), opts) {
		res.Warn(w)
	}

	if hasHTMLStructure(raw) {
		md, err := htmltomarkdown.ConvertString(raw)
		if err != nil {
			logger := log.WithComponentFromContext(ctx, "text")
			logger.Warn().Err(err).Msg("html conversion failed, keeping content as-is")
			res.Warn("html conversion failed, content returned as-is")
		} else {
			res.Content = md
		}
	}

	return res, nil
}
