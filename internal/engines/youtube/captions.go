// SPDX-License-Identifier: MIT

package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"github.com/ManuGH/ccore/internal/exterr"
)

// captionTrack mirrors one entry of the player response's captionTracks
// array. Kind is "asr" for speech-recognition tracks.
type captionTrack struct {
	BaseURL        string `json:"baseUrl"`
	LanguageCode   string `json:"languageCode"`
	Kind           string `json:"kind"`
	IsTranslatable bool   `json:"isTranslatable"`
}

func (t captionTrack) generated() bool { return t.Kind == "asr" }

// selection is the outcome of the track walk. tlang requests server-side
// translation; note carries a caller-visible caveat about the pick.
type selection struct {
	track captionTrack
	tlang string
	note  string
}

// pickTrack walks the tiers: manual tracks by language preference, then
// speech-recognition tracks by preference, then a translatable track
// targeted at the first preference, then whatever is first.
func pickTrack(tracks []captionTrack, prefs []string) selection {
	tags := make([]language.Tag, 0, len(prefs))
	for _, p := range prefs {
		if tag, err := language.Parse(p); err == nil {
			tags = append(tags, tag)
		}
	}
	var manual, auto []captionTrack
	for _, t := range tracks {
		if t.generated() {
			auto = append(auto, t)
		} else {
			manual = append(manual, t)
		}
	}
	if t, ok := bestMatch(manual, tags); ok {
		return selection{track: t}
	}
	if t, ok := bestMatch(auto, tags); ok {
		return selection{track: t}
	}
	if len(prefs) > 0 {
		for _, t := range tracks {
			if t.IsTranslatable {
				return selection{
					track: t,
					tlang: prefs[0],
					note:  fmt.Sprintf("captions machine-translated from %s to %s", t.LanguageCode, prefs[0]),
				}
			}
		}
	}
	t := tracks[0]
	return selection{
		track: t,
		note:  fmt.Sprintf("no caption track matches preferred languages, using %s", t.LanguageCode),
	}
}

// bestMatch picks the track best serving the ordered preferences. Matching
// tolerates region subtags (en takes en-US) but rejects the matcher's
// looser cross-language affinities.
func bestMatch(tracks []captionTrack, prefs []language.Tag) (captionTrack, bool) {
	if len(tracks) == 0 || len(prefs) == 0 {
		return captionTrack{}, false
	}
	tags := make([]language.Tag, 0, len(tracks))
	idxs := make([]int, 0, len(tracks))
	for i, t := range tracks {
		tag, err := language.Parse(t.LanguageCode)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		idxs = append(idxs, i)
	}
	if len(tags) == 0 {
		return captionTrack{}, false
	}
	m := language.NewMatcher(tags)
	_, idx, conf := m.Match(prefs...)
	if conf < language.High {
		return captionTrack{}, false
	}
	return tracks[idxs[idx]], true
}

// Cue is one time-coded transcript line. Start and Duration are seconds.
type Cue struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// timedText is the json3 payload shape of the timedtext endpoint.
type timedText struct {
	Events []struct {
		Start    int64 `json:"tStartMs"`
		Duration int64 `json:"dDurationMs"`
		Segs     []struct {
			Text string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func (p *Processor) fetchCaptions(ctx context.Context, sel selection) ([]Cue, error) {
	ctx, cancel := context.WithTimeout(ctx, captionTimeout)
	defer cancel()

	target := sel.track.BaseURL + "&fmt=json3"
	if sel.tlang != "" {
		target += "&tlang=" + url.QueryEscape(sel.tlang)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, exterr.Wrap(exterr.KindValidation, "build timedtext request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, exterr.Wrap(exterr.KindNetwork, fmt.Sprintf("fetch captions %s", sel.track.LanguageCode), err)
	}
	defer resp.Body.Close()

	if kind := statusKind(resp.StatusCode); kind != "" {
		return nil, exterr.Newf(kind, "timedtext: status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, exterr.Wrap(exterr.KindNetwork, "read timedtext response", err)
	}
	// An empty 200 body is how the endpoint reports a track it could not
	// render, translation targets included.
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, exterr.Newf(exterr.KindCaptionGeneration, "timedtext returned no payload for %s", sel.track.LanguageCode)
	}

	var tt timedText
	if err := json.Unmarshal(raw, &tt); err != nil {
		return nil, exterr.Wrap(exterr.KindCaptionGeneration, "decode timedtext payload", err)
	}
	return cuesFrom(tt), nil
}

// cuesFrom flattens json3 events into cues. Events carrying only layout
// segments (bare newlines) are dropped.
func cuesFrom(tt timedText) []Cue {
	cues := make([]Cue, 0, len(tt.Events))
	for _, ev := range tt.Events {
		var sb strings.Builder
		for _, seg := range ev.Segs {
			sb.WriteString(seg.Text)
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		cues = append(cues, Cue{
			Text:     text,
			Start:    float64(ev.Start) / 1000,
			Duration: float64(ev.Duration) / 1000,
		})
	}
	return cues
}

func joinCues(cues []Cue) string {
	parts := make([]string, len(cues))
	for i, c := range cues {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n")
}
