// SPDX-License-Identifier: MIT

package pdf

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
)

func writeEPUB(t *testing.T, entries map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func minimalEPUB(t *testing.T) string {
	t.Helper()
	return writeEPUB(t, map[string]string{
		"mimetype": "application/epub+zip",
		"META-INF/container.xml": `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`,
		"OEBPS/content.opf": `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
  <metadata><dc:title>Field Notes</dc:title></metadata>
  <manifest>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine><itemref idref="ch2"/><itemref idref="ch1"/></spine>
</package>`,
		"OEBPS/ch1.xhtml": `<html><body><h1>Chapter One</h1><p>It began with a <strong>storm</strong>.</p></body></html>`,
		"OEBPS/ch2.xhtml": `<html><body><h1>Prologue</h1><p>The road went on.</p></body></html>`,
	})
}

func TestExtractEPUB(t *testing.T) {
	res, err := New().Extract(context.Background(),
		&content.Source{FilePath: minimalEPUB(t), MimeType: content.MimeEPUB}, nil)
	require.NoError(t, err)

	assert.Equal(t, content.MimeMarkdown, res.MimeType)
	assert.Contains(t, res.Content, "# Chapter One")
	assert.Contains(t, res.Content, "# Prologue")
	assert.Contains(t, res.Content, "**storm**")
	assert.Equal(t, "Field Notes", res.Metadata[content.MetaTitle])

	// Spine order wins over manifest order.
	assert.Less(t,
		strings.Index(res.Content, "# Prologue"),
		strings.Index(res.Content, "# Chapter One"))
}

func TestExtractEPUBByExtension(t *testing.T) {
	res, err := New().Extract(context.Background(), &content.Source{FilePath: minimalEPUB(t)}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "The road went on.")
}

func TestExtractEPUBMissingContainer(t *testing.T) {
	p := writeEPUB(t, map[string]string{"mimetype": "application/epub+zip"})
	_, err := New().Extract(context.Background(),
		&content.Source{FilePath: p, MimeType: content.MimeEPUB}, nil)
	require.Error(t, err)
	assert.Equal(t, exterr.KindParse, exterr.KindOf(err))
}

func TestExtractEPUBSkipsUnreadableChapter(t *testing.T) {
	p := writeEPUB(t, map[string]string{
		"META-INF/container.xml": `<container><rootfiles><rootfile full-path="content.opf"/></rootfiles></container>`,
		"content.opf": `<package>
  <manifest>
    <item id="ok" href="ok.xhtml"/>
    <item id="gone" href="gone.xhtml"/>
  </manifest>
  <spine><itemref idref="ok"/><itemref idref="gone"/></spine>
</package>`,
		"ok.xhtml": `<html><body><p>still here</p></body></html>`,
	})
	res, err := New().Extract(context.Background(),
		&content.Source{FilePath: p, MimeType: content.MimeEPUB}, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Content, "still here")
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "gone.xhtml")
}
