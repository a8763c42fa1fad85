// SPDX-License-Identifier: MIT

package pdf

import (
	"archive/zip"
	"io"
	"path"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/beevik/etree"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
)

// extractEPUB walks the container's spine in reading order and converts each
// XHTML chapter to markdown.
func extractEPUB(file string, warnings []string) (*content.Result, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		kind := exterr.KindOf(err)
		if kind == exterr.KindExtraction {
			kind = exterr.KindParse
		}
		return nil, exterr.Wrap(kind, "open epub", err)
	}
	defer zr.Close()

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[path.Clean(f.Name)] = f
	}

	opfPath, err := containerRootfile(entries)
	if err != nil {
		return nil, err
	}
	opfRaw, err := readEntry(entries, opfPath)
	if err != nil {
		return nil, err
	}

	opf := etree.NewDocument()
	if err := opf.ReadFromBytes(opfRaw); err != nil {
		return nil, exterr.Wrap(exterr.KindParse, "parse epub package document", err)
	}

	hrefs := make(map[string]string)
	for _, item := range opf.FindElements("//manifest/item") {
		hrefs[item.SelectAttrValue("id", "")] = item.SelectAttrValue("href", "")
	}

	baseDir := path.Dir(opfPath)
	var parts []string
	for _, ref := range opf.FindElements("//spine/itemref") {
		href := hrefs[ref.SelectAttrValue("idref", "")]
		if href == "" {
			continue
		}
		chapter, err := readEntry(entries, path.Join(baseDir, href))
		if err != nil {
			warnings = append(warnings, "epub chapter "+href+" unreadable, skipped")
			continue
		}
		md, err := htmltomarkdown.ConvertString(string(chapter))
		if err != nil {
			// Same stance as the text engine: raw markup over a
			// half-converted chapter.
			warnings = append(warnings, "epub chapter "+href+" conversion failed, kept as markup")
			md = string(chapter)
		}
		if md = strings.TrimSpace(md); md != "" {
			parts = append(parts, md)
		}
	}

	res := content.NewResult(strings.Join(parts, "\n\n"), content.MimeMarkdown)
	if title := opf.FindElement("//title"); title != nil {
		if t := strings.TrimSpace(title.Text()); t != "" {
			res.Meta(content.MetaTitle, t)
		}
	}
	for _, w := range warnings {
		res.Warn(w)
	}
	return res, nil
}

// containerRootfile resolves META-INF/container.xml to the package document
// path.
func containerRootfile(entries map[string]*zip.File) (string, error) {
	raw, err := readEntry(entries, "META-INF/container.xml")
	if err != nil {
		return "", err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return "", exterr.Wrap(exterr.KindParse, "parse epub container", err)
	}
	rootfile := doc.FindElement("//rootfile")
	if rootfile == nil {
		return "", exterr.New(exterr.KindParse, "epub container names no rootfile")
	}
	opfPath := rootfile.SelectAttrValue("full-path", "")
	if opfPath == "" {
		return "", exterr.New(exterr.KindParse, "epub rootfile has no full-path")
	}
	return opfPath, nil
}

func readEntry(entries map[string]*zip.File, name string) ([]byte, error) {
	f, ok := entries[path.Clean(name)]
	if !ok {
		return nil, exterr.Newf(exterr.KindParse, "epub entry %q missing", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, exterr.Wrap(exterr.KindParse, "read epub entry", err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
