// SPDX-License-Identifier: MIT

package office

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/ManuGH/ccore/internal/exterr"
)

// extractDOCX walks word/document.xml in body order, mapping paragraph
// styles to markdown headings, numbering to list items and w:tbl grids to
// markdown tables.
func extractDOCX(file string) (string, string, error) {
	zr, err := openPackage(file)
	if err != nil {
		return "", "", err
	}
	defer zr.Close()

	raw, err := readPart(zr, "word/document.xml")
	if err != nil {
		return "", "", err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return "", "", exterr.Wrap(exterr.KindParse, "parse word document", err)
	}
	body := doc.FindElement("//body")
	if body == nil {
		return "", "", exterr.New(exterr.KindParse, "word document has no body")
	}

	var blocks []string
	for _, el := range body.ChildElements() {
		var block string
		switch el.Tag {
		case "p":
			block = renderParagraph(el)
		case "tbl":
			block = renderWordTable(el)
		}
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n"), coreTitle(zr), nil
}

func renderParagraph(p *etree.Element) string {
	text := runText(p)
	if text == "" {
		return ""
	}
	if lvl := headingLevel(p); lvl > 0 {
		return strings.Repeat("#", lvl) + " " + text
	}
	if lvl, ok := listLevel(p); ok {
		return strings.Repeat("  ", lvl) + "- " + text
	}
	return text
}

// runText collects the paragraph's runs in document order, including runs
// nested inside hyperlinks, and applies bold/italic run emphasis.
func runText(p *etree.Element) string {
	var b strings.Builder
	for _, r := range p.FindElements(".//r") {
		var run strings.Builder
		for _, el := range r.ChildElements() {
			switch el.Tag {
			case "t":
				run.WriteString(el.Text())
			case "br", "cr":
				run.WriteByte('\n')
			case "tab":
				run.WriteByte(' ')
			}
		}
		b.WriteString(emphasize(run.String(), r.FindElement("rPr")))
	}
	return strings.TrimSpace(b.String())
}

// emphasize wraps the run in markdown markers, keeping edge whitespace
// outside the markers where markdown requires it.
func emphasize(s string, rPr *etree.Element) string {
	if rPr == nil || strings.TrimSpace(s) == "" {
		return s
	}
	bold := flagSet(rPr, "b")
	italic := flagSet(rPr, "i")
	if !bold && !italic {
		return s
	}

	core := strings.TrimLeft(s, " \t\n")
	lead := s[:len(s)-len(core)]
	trimmed := strings.TrimRight(core, " \t\n")
	trail := core[len(trimmed):]

	switch {
	case bold && italic:
		trimmed = "***" + trimmed + "***"
	case bold:
		trimmed = "**" + trimmed + "**"
	default:
		trimmed = "*" + trimmed + "*"
	}
	return lead + trimmed + trail
}

// flagSet reports whether a toggle property like w:b or w:i is on. An
// explicit val of false or 0 turns it off.
func flagSet(rPr *etree.Element, tag string) bool {
	el := rPr.FindElement(tag)
	if el == nil {
		return false
	}
	switch attrValue(el, "val") {
	case "false", "0":
		return false
	}
	return true
}

func headingLevel(p *etree.Element) int {
	style := p.FindElement("pPr/pStyle")
	if style == nil {
		return 0
	}
	val := attrValue(style, "val")
	if val == "Title" {
		return 1
	}
	rest, ok := strings.CutPrefix(val, "Heading")
	if !ok {
		return 0
	}
	lvl, err := strconv.Atoi(rest)
	if err != nil || lvl < 1 {
		return 0
	}
	if lvl > 6 {
		lvl = 6
	}
	return lvl
}

func listLevel(p *etree.Element) (int, bool) {
	numPr := p.FindElement("pPr/numPr")
	if numPr == nil {
		return 0, false
	}
	lvl := 0
	if ilvl := numPr.FindElement("ilvl"); ilvl != nil {
		if n, err := strconv.Atoi(attrValue(ilvl, "val")); err == nil && n > 0 {
			lvl = n
		}
	}
	return lvl, true
}

func renderWordTable(tbl *etree.Element) string {
	var rows [][]string
	for _, tr := range tbl.ChildElements() {
		if tr.Tag != "tr" {
			continue
		}
		var row []string
		for _, tc := range tr.ChildElements() {
			if tc.Tag != "tc" {
				continue
			}
			var parts []string
			for _, p := range tc.FindElements(".//p") {
				if s := runText(p); s != "" {
					parts = append(parts, s)
				}
			}
			row = append(row, strings.Join(parts, " "))
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return markdownTable(rows)
}
