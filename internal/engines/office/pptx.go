// SPDX-License-Identifier: MIT

package office

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/ManuGH/ccore/internal/exterr"
)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX renders slides in deck order: title placeholders become
// headings, body paragraphs plain lines, a:tbl grids markdown tables.
// Slides are separated by a horizontal rule.
func extractPPTX(file string) (string, string, error) {
	zr, err := openPackage(file)
	if err != nil {
		return "", "", err
	}
	defer zr.Close()

	type slideRef struct {
		num  int
		name string
	}
	var slides []slideRef
	for _, f := range zr.File {
		if m := slidePattern.FindStringSubmatch(path.Clean(f.Name)); m != nil {
			n, _ := strconv.Atoi(m[1])
			slides = append(slides, slideRef{num: n, name: f.Name})
		}
	}
	// slide10.xml sorts after slide9.xml, not after slide1.xml.
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var parts []string
	for _, s := range slides {
		raw, err := readPart(zr, s.name)
		if err != nil {
			return "", "", err
		}
		md, err := renderSlide(raw)
		if err != nil {
			return "", "", err
		}
		if md != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, "\n\n---\n\n"), coreTitle(zr), nil
}

func renderSlide(raw []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return "", exterr.Wrap(exterr.KindParse, "parse slide", err)
	}

	var lines []string
	for _, sp := range doc.FindElements("//sp") {
		title := false
		if ph := sp.FindElement(".//ph"); ph != nil {
			switch attrValue(ph, "type") {
			case "title", "ctrTitle":
				title = true
			}
		}
		for _, txBody := range sp.FindElements(".//txBody") {
			for _, p := range txBody.ChildElements() {
				if p.Tag != "p" {
					continue
				}
				text := slideText(p)
				if text == "" {
					continue
				}
				if title {
					text = "# " + text
				}
				lines = append(lines, text)
			}
		}
	}

	for _, tbl := range doc.FindElements("//tbl") {
		if md := renderSlideTable(tbl); md != "" {
			lines = append(lines, md)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func slideText(el *etree.Element) string {
	var b strings.Builder
	for _, t := range el.FindElements(".//t") {
		b.WriteString(t.Text())
	}
	return strings.TrimSpace(b.String())
}

func renderSlideTable(tbl *etree.Element) string {
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
			row = append(row, slideText(tc))
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return markdownTable(rows)
}
