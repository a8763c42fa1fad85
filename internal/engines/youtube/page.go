// SPDX-License-Identifier: MIT

package youtube

import (
	"encoding/json"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/ManuGH/ccore/internal/exterr"
)

var (
	ogTitleSelector   = cascadia.MustCompile(`meta[property="og:title"]`)
	metaTitleSelector = cascadia.MustCompile(`meta[name="title"]`)
	titleSelector     = cascadia.MustCompile(`title`)
)

// pageTitle pulls the video title out of the watch page. YouTube reshuffles
// its markup often, so every probe is optional and failure yields "".
func pageTitle(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	if n := ogTitleSelector.MatchFirst(doc); n != nil {
		if v := attr(n, "content"); v != "" {
			return v
		}
	}
	if n := metaTitleSelector.MatchFirst(doc); n != nil {
		if v := attr(n, "content"); v != "" {
			return v
		}
	}
	if n := titleSelector.MatchFirst(doc); n != nil {
		t := strings.TrimSpace(nodeText(n))
		t = strings.TrimSuffix(t, " - YouTube")
		if t != "" {
			return strings.TrimSpace(t)
		}
	}
	return ""
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

const trackListMarker = `"captionTracks":`

// captionTracks reads the track list out of the player response JSON that
// YouTube embeds in the watch page. A missing marker means the video has no
// captions; a marker followed by undecodable JSON means the page layout
// changed under us.
func captionTracks(body string) ([]captionTrack, error) {
	idx := strings.Index(body, trackListMarker)
	if idx < 0 {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(body[idx+len(trackListMarker):]))
	var tracks []captionTrack
	if err := dec.Decode(&tracks); err != nil {
		return nil, exterr.Wrap(exterr.KindParse, "decode caption track list", err)
	}
	return tracks, nil
}
