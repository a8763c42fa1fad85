// SPDX-License-Identifier: MIT

package pdf

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/registry"
)

const (
	// maxHeadingLen keeps long body lines in a large font from turning
	// into headings.
	maxHeadingLen = 120
	// maxHeadingLevel caps how many font-size tiers map to markdown
	// heading levels.
	maxHeadingLevel = 6
	pageSeparator   = "\n\n---\n\n"
)

// MarkdownProcessor renders PDF pages as markdown. Headings are inferred
// from the document's font-size distribution: the most common size is body
// text, larger tiers become heading levels.
type MarkdownProcessor struct{}

func NewMarkdown() *MarkdownProcessor { return &MarkdownProcessor{} }

func (p *MarkdownProcessor) Name() string { return "pymupdf4llm" }

func (p *MarkdownProcessor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes:  []string{content.MimePDF, content.MimeEPUB},
		Extensions: []string{".pdf", ".epub"},
		Priority:   55,
		Category:   content.CategoryDocuments,
	}
}

func (p *MarkdownProcessor) Available() bool { return true }

func (p *MarkdownProcessor) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.FilePath == "" {
		return nil, exterr.New(exterr.KindValidation, "pdf extraction requires a file path")
	}

	warnings := registry.UnknownOptions(p.Name(), opts, "pages", "write_images", "embed_images")
	if registry.BoolOption(opts, "write_images", false) || registry.BoolOption(opts, "embed_images", false) {
		warnings = append(warnings, "image extraction is not supported, images are ignored")
	}

	if isEPUB(src) {
		return extractEPUB(src.FilePath, warnings)
	}

	pages, err := loadPages(src.FilePath)
	if err != nil {
		return nil, err
	}
	pages = filterPages(pages, registry.IntListOption(opts, "pages"))

	levels := headingLevels(pages, bodySize(pages))
	parts := make([]string, 0, len(pages))
	for _, pg := range pages {
		parts = append(parts, renderMarkdownPage(pg, levels))
	}

	res := content.NewResult(CleanText(strings.Join(parts, pageSeparator)), content.MimeMarkdown).
		Meta("pages", len(pages))
	for _, w := range warnings {
		res.Warn(w)
	}
	return res, nil
}

// filterPages keeps only the selected zero-based page indexes. An empty
// selection keeps everything.
func filterPages(pages []pageContent, selected []int) []pageContent {
	if len(selected) == 0 {
		return pages
	}
	want := make(map[int]bool, len(selected))
	for _, n := range selected {
		want[n] = true
	}
	out := pages[:0]
	for _, pg := range pages {
		if want[pg.number-1] {
			out = append(out, pg)
		}
	}
	return out
}

// roundSize buckets font sizes to half points so kerning jitter does not
// split one visual size into many.
func roundSize(s float64) float64 { return math.Round(s*2) / 2 }

// bodySize picks the size carrying the most text. Ties go to the smaller
// size, which keeps captions from claiming body status.
func bodySize(pages []pageContent) float64 {
	weights := make(map[float64]int)
	for _, pg := range pages {
		for _, l := range pg.lines {
			for _, f := range l.frags {
				weights[roundSize(f.size)] += len(f.text)
			}
		}
	}
	var best float64
	bestWeight := -1
	for size, w := range weights {
		if w > bestWeight || (w == bestWeight && size < best) {
			best, bestWeight = size, w
		}
	}
	return best
}

// headingLevels maps each font size larger than body text to a markdown
// heading level, largest first.
func headingLevels(pages []pageContent, body float64) map[float64]int {
	seen := make(map[float64]bool)
	for _, pg := range pages {
		for _, l := range pg.lines {
			for _, f := range l.frags {
				if s := roundSize(f.size); s > body+0.5 {
					seen[s] = true
				}
			}
		}
	}
	sizes := make([]float64, 0, len(seen))
	for s := range seen {
		sizes = append(sizes, s)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	levels := make(map[float64]int, len(sizes))
	for i, s := range sizes {
		if i == maxHeadingLevel {
			break
		}
		levels[s] = i + 1
	}
	return levels
}

func renderMarkdownPage(pg pageContent, levels map[float64]int) string {
	var b strings.Builder
	for _, l := range pg.lines {
		s := renderMarkdownLine(l, levels)
		if s == "" {
			continue
		}
		if b.Len() > 0 {
			if strings.HasPrefix(s, "#") {
				b.WriteString("\n\n")
			} else {
				b.WriteByte('\n')
			}
		}
		b.WriteString(s)
	}
	for _, rows := range detectTables(pg.lines) {
		b.WriteString("\n\n")
		b.WriteString(tableMarkdown(rows))
	}
	return b.String()
}

func renderMarkdownLine(l line, levels map[float64]int) string {
	text := strings.TrimSpace(joinFragments(l.frags))
	if text == "" {
		return ""
	}
	if lvl := lineHeadingLevel(l, levels); lvl > 0 && len(text) <= maxHeadingLen {
		return strings.Repeat("#", lvl) + " " + text
	}
	if rest, ok := strings.CutPrefix(text, "• "); ok {
		return "- " + rest
	}
	if fontsContain(l, "Bold") {
		return "**" + text + "**"
	}
	if fontsContain(l, "Italic") || fontsContain(l, "Oblique") {
		return "*" + text + "*"
	}
	return text
}

// lineHeadingLevel reports the heading level when the whole row shares one
// heading-tier size.
func lineHeadingLevel(l line, levels map[float64]int) int {
	if len(l.frags) == 0 {
		return 0
	}
	size := roundSize(l.frags[0].size)
	for _, f := range l.frags[1:] {
		if roundSize(f.size) != size {
			return 0
		}
	}
	return levels[size]
}

func fontsContain(l line, style string) bool {
	for _, f := range l.frags {
		if !strings.Contains(f.font, style) {
			return false
		}
	}
	return len(l.frags) > 0
}
