// SPDX-License-Identifier: MIT

package pdf

import (
	"math"
	"os"
	"sort"
	"strings"

	"rsc.io/pdf"

	"github.com/ManuGH/ccore/internal/exterr"
)

// Geometry thresholds in PDF points. Gap thresholds scale with the font size
// so dense footnotes and large print both assemble correctly.
const (
	yTolerance     = 2.0
	spaceGapRatio  = 0.3
	columnGapRatio = 2.0
	minColumnGap   = 12.0
)

// fragment is one text-showing run placed on the page.
type fragment struct {
	x, w float64
	size float64
	font string
	text string
}

// line is a row of fragments sharing a baseline, ordered left to right.
type line struct {
	y     float64
	frags []fragment
}

// pageContent holds the assembled rows of one page. number is 1-based.
type pageContent struct {
	number int
	lines  []line
}

// loadPages parses the document and assembles per-page lines. The underlying
// parser panics on structurally damaged files, so the recover turns that into
// a parse error instead of taking the process down.
func loadPages(path string) (pages []pageContent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = exterr.Newf(exterr.KindParse, "malformed pdf: %v", r)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, exterr.Wrap(exterr.KindOf(err), "open pdf", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, exterr.Wrap(exterr.KindOf(err), "stat pdf", err)
	}

	doc, err := pdf.NewReader(f, st.Size())
	if err != nil {
		return nil, exterr.Wrap(exterr.KindParse, "parse pdf", err)
	}

	for num := 1; num <= doc.NumPage(); num++ {
		p := doc.Page(num)
		if p.V.IsNull() {
			continue
		}
		pages = append(pages, pageContent{number: num, lines: assembleLines(p.Content().Text)})
	}
	return pages, nil
}

// assembleLines groups text runs into baseline rows. The page origin is the
// bottom-left corner, so descending Y reads top to bottom.
func assembleLines(texts []pdf.Text) []line {
	runs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		runs = append(runs, t)
	}
	sort.SliceStable(runs, func(i, j int) bool {
		if math.Abs(runs[i].Y-runs[j].Y) > yTolerance {
			return runs[i].Y > runs[j].Y
		}
		return runs[i].X < runs[j].X
	})

	var lines []line
	for _, t := range runs {
		f := fragment{x: t.X, w: t.W, size: t.FontSize, font: t.Font, text: t.S}
		if n := len(lines); n > 0 && math.Abs(lines[n-1].y-t.Y) <= yTolerance {
			lines[n-1].frags = append(lines[n-1].frags, f)
			continue
		}
		lines = append(lines, line{y: t.Y, frags: []fragment{f}})
	}
	return lines
}

// joinFragments concatenates a row, inserting a space wherever the horizontal
// gap between runs exceeds what intra-word kerning produces.
func joinFragments(frags []fragment) string {
	var b strings.Builder
	for i, f := range frags {
		if i > 0 {
			prev := frags[i-1]
			gap := f.x - (prev.x + prev.w)
			if gap > spaceGap(prev.size) && !strings.HasSuffix(prev.text, " ") && !strings.HasPrefix(f.text, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(f.text)
	}
	return b.String()
}

func spaceGap(size float64) float64 {
	if g := size * spaceGapRatio; g > 1.0 {
		return g
	}
	return 1.0
}

func columnGap(size float64) float64 {
	if g := size * columnGapRatio; g > minColumnGap {
		return g
	}
	return minColumnGap
}

// splitColumns divides a row at gaps wide enough to be layout, not spacing.
func splitColumns(l line) [][]fragment {
	var cols [][]fragment
	for i, f := range l.frags {
		if i > 0 {
			prev := l.frags[i-1]
			if f.x-(prev.x+prev.w) > columnGap(prev.size) {
				cols = append(cols, []fragment{f})
				continue
			}
		}
		if len(cols) == 0 {
			cols = append(cols, []fragment{f})
			continue
		}
		cols[len(cols)-1] = append(cols[len(cols)-1], f)
	}
	return cols
}
