// SPDX-License-Identifier: MIT

package url

import (
	"fmt"
	nurl "net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/andybalholm/cascadia"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
)

// contentSelectors matches the containers that usually hold the article
// body when readability cannot isolate one.
var contentSelectors = cascadia.MustCompile(
	`article, .content, .post, main, [role="main"], div[class*="content"], div[class*="article"]`,
)

var (
	titleSelector   = cascadia.MustCompile("title")
	h1Selector      = cascadia.MustCompile("h1")
	ogTitleSelector = cascadia.MustCompile(`meta[property="og:title"]`)
)

// page is the outcome of parsing one downloaded document.
type page struct {
	title    string
	body     string
	mime     string
	warnings []string
}

// parsePage isolates the main content of rawHTML. Readability output is
// converted to markdown; when readability finds nothing the fallback walks
// common content containers and yields plain text.
func parsePage(pageURL, rawHTML string) (*page, error) {
	base, err := nurl.Parse(pageURL)
	if err != nil {
		return nil, exterr.Wrap(exterr.KindValidation, fmt.Sprintf("parse url %s", pageURL), err)
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), base)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		pg := &page{title: article.Title, mime: content.MimeMarkdown}
		md, convErr := htmltomarkdown.ConvertString(article.Content)
		if convErr != nil {
			pg.body = strings.TrimSpace(article.TextContent)
			pg.mime = content.MimePlain
			pg.warnings = append(pg.warnings, "markdown conversion failed, content returned as plain text")
		} else {
			pg.body = strings.TrimSpace(md)
		}
		if pg.body != "" {
			return pg, nil
		}
	}

	return fallbackParse(rawHTML)
}

// fallbackParse extracts title and text without readability. Content comes
// from known content containers, or from the whole document when none match.
func fallbackParse(rawHTML string) (*page, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, exterr.Wrap(exterr.KindParse, "parse html", err)
	}

	pg := &page{title: fallbackTitle(doc), mime: content.MimePlain}

	var parts []string
	for _, node := range contentSelectors.MatchAll(doc) {
		if txt := textOf(node); txt != "" {
			parts = append(parts, txt)
		}
	}
	if len(parts) > 0 {
		pg.body = strings.Join(parts, " ")
	} else {
		pg.body = textOf(doc)
	}
	if pg.body == "" {
		return nil, exterr.New(exterr.KindParse, "no readable content in page")
	}
	return pg, nil
}

// fallbackTitle tries the title tag, the first h1, then og:title.
func fallbackTitle(doc *html.Node) string {
	if n := titleSelector.MatchFirst(doc); n != nil {
		if t := textOf(n); t != "" {
			return t
		}
	}
	if n := h1Selector.MatchFirst(doc); n != nil {
		if t := textOf(n); t != "" {
			return t
		}
	}
	if n := ogTitleSelector.MatchFirst(doc); n != nil {
		for _, a := range n.Attr {
			if a.Key == "content" && strings.TrimSpace(a.Val) != "" {
				return strings.TrimSpace(a.Val)
			}
		}
	}
	return ""
}

// skippedElements never contribute text.
var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"nav":      {},
}

// textOf joins the text nodes under n with single spaces.
func textOf(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			if _, skip := skippedElements[node.Data]; skip {
				return
			}
		}
		if node.Type == html.TextNode {
			if txt := strings.Join(strings.Fields(node.Data), " "); txt != "" {
				parts = append(parts, txt)
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
