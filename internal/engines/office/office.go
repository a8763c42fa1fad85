// SPDX-License-Identifier: MIT

// Package office converts OOXML documents to markdown: DOCX and PPTX by
// walking the package XML, XLSX through the spreadsheet library. Legacy
// binary formats (.doc, .xls, .ppt) are not handled here; the docling
// engine covers those.
package office

import (
	"archive/zip"
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/registry"
)

// Processor converts DOCX, XLSX and PPTX files to markdown.
type Processor struct{}

func New() *Processor { return &Processor{} }

func (p *Processor) Name() string { return "office" }

func (p *Processor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes:  []string{content.MimeDOCX, content.MimeXLSX, content.MimePPTX},
		Extensions: []string{".docx", ".xlsx", ".pptx"},
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
		return nil, exterr.New(exterr.KindValidation, "office extraction requires a file path")
	}

	var (
		md    string
		title string
		err   error
	)
	switch kindOfDocument(src) {
	case content.MimeDOCX:
		md, title, err = extractDOCX(src.FilePath)
	case content.MimeXLSX:
		md, err = extractXLSX(src.FilePath)
	case content.MimePPTX:
		md, title, err = extractPPTX(src.FilePath)
	default:
		return nil, exterr.Newf(exterr.KindValidation, "unsupported office document %q", filepath.Base(src.FilePath))
	}
	if err != nil {
		return nil, err
	}

	res := content.NewResult(md, content.MimeMarkdown)
	if title != "" {
		res.Meta(content.MetaTitle, title)
	}
	for _, w := range registry.UnknownOptions(p.Name(), opts) {
		res.Warn(w)
	}
	return res, nil
}

// kindOfDocument resolves the concrete OOXML flavor from the declared mime,
// falling back to the file extension.
func kindOfDocument(src *content.Source) string {
	switch src.MimeType {
	case content.MimeDOCX, content.MimeXLSX, content.MimePPTX:
		return src.MimeType
	}
	switch strings.ToLower(filepath.Ext(src.FilePath)) {
	case ".docx":
		return content.MimeDOCX
	case ".xlsx":
		return content.MimeXLSX
	case ".pptx":
		return content.MimePPTX
	}
	return ""
}

// openPackage opens an OOXML container. Office files are zip archives; a
// file that does not open as one is damaged or mislabeled.
func openPackage(file string) (*zip.ReadCloser, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		kind := exterr.KindOf(err)
		if kind == exterr.KindExtraction {
			kind = exterr.KindParse
		}
		return nil, exterr.Wrap(kind, "open office document", err)
	}
	return zr, nil
}

func readPart(zr *zip.ReadCloser, name string) ([]byte, error) {
	clean := path.Clean(name)
	for _, f := range zr.File {
		if path.Clean(f.Name) == clean {
			rc, err := f.Open()
			if err != nil {
				return nil, exterr.Wrap(exterr.KindParse, "read package part", err)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, exterr.Newf(exterr.KindParse, "package part %q missing", name)
}

// coreTitle reads dc:title from the shared docProps/core.xml part. All three
// OOXML flavors carry it in the same place.
func coreTitle(zr *zip.ReadCloser) string {
	raw, err := readPart(zr, "docProps/core.xml")
	if err != nil {
		return ""
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return ""
	}
	if el := doc.FindElement("//title"); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

// attrValue matches an attribute by local name regardless of its namespace
// prefix; OOXML parts mix w:, a: and unprefixed attributes freely.
func attrValue(el *etree.Element, key string) string {
	for _, a := range el.Attr {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// markdownTable renders rows with the first row as header. Ragged rows are
// padded to the widest row so the table stays rectangular.
func markdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return ""
	}

	var b strings.Builder
	writeRow := func(row []string) {
		b.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(" " + escapeCell(cell) + " |")
		}
	}
	writeRow(rows[0])
	b.WriteString("\n|")
	for i := 0; i < width; i++ {
		b.WriteString(" --- |")
	}
	for _, row := range rows[1:] {
		b.WriteString("\n")
		writeRow(row)
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
