// SPDX-License-Identifier: MIT

// Package youtube extracts video transcripts from caption tracks without
// downloading media. It scrapes the watch page for the title and the
// embedded caption track list, picks a track by language preference and
// fetches its timedtext payload.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/registry"
	"github.com/ManuGH/ccore/internal/retry"
)

const (
	watchBase      = "https://www.youtube.com/watch?v="
	watchTimeout   = 20 * time.Second
	captionTimeout = 15 * time.Second
	errSnippet     = 200

	// One watch-page fetch per half second, short bursts allowed. Timedtext
	// fetches are not gated; they hit a CDN endpoint, not the watch frontend.
	watchEvery = 500 * time.Millisecond
	watchBurst = 3

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
)

var httpClient = &http.Client{}

// videoIDPattern accepts the common watch, embed, short-link and legacy /v/
// forms. Video IDs are exactly 11 characters of [A-Za-z0-9_-].
var videoIDPattern = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/(?:embed/|v/|watch\?v=|watch\?.+&v=))([\w-]{11})`)

func videoID(raw string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", exterr.Newf(exterr.KindParse, "no video id in url %q", raw)
	}
	return m[1], nil
}

// Processor implements the "youtube" engine.
type Processor struct {
	langs   []string
	policy  config.Retry
	watch   string // watch-page URL prefix, swapped in tests
	limiter *rate.Limiter
}

func New(cfg config.YouTube, policy config.Retry) *Processor {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = config.DefaultYouTubeLanguages()
	}
	return &Processor{
		langs:   langs,
		policy:  policy,
		watch:   watchBase,
		limiter: rate.NewLimiter(rate.Every(watchEvery), watchBurst),
	}
}

func (p *Processor) Name() string { return "youtube" }

func (p *Processor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes: []string{content.MimeYouTube},
		Priority:  50,
		Category:  content.CategoryYouTube,
	}
}

func (p *Processor) Available() bool { return true }

func (p *Processor) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.URL == "" {
		return nil, exterr.New(exterr.KindValidation, "youtube engine requires a url source")
	}
	id, err := videoID(src.URL)
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}

	var page watchPage
	err = retry.Do(ctx, p.policy, "youtube watch page", func() error {
		var ferr error
		page, ferr = p.fetchWatchPage(ctx, id)
		return ferr
	})
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}

	title := page.title
	if title == "" {
		title = "YouTube Video " + id
	}

	if len(page.tracks) == 0 {
		res := content.NewResult("", content.MimePlain)
		res.Meta("video_id", id)
		res.Meta(content.MetaTitle, title)
		res.Meta("error", "no_captions")
		res.Meta("message", "No captions available")
		for _, w := range registry.UnknownOptions(p.Name(), opts) {
			res.Warn(w)
		}
		return res, nil
	}

	sel := pickTrack(page.tracks, p.langs)

	var cues []Cue
	err = retry.Do(ctx, p.policy, "youtube captions", func() error {
		var ferr error
		cues, ferr = p.fetchCaptions(ctx, sel)
		return ferr
	})
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}

	text := joinCues(cues)
	if text == "" {
		return nil, exterr.WithEngine(p.Name(),
			exterr.Newf(exterr.KindEmptyCaptions, "caption track %s has no text", sel.track.LanguageCode))
	}

	lang := sel.track.LanguageCode
	if sel.tlang != "" {
		lang = sel.tlang
	}
	log.WithComponentFromContext(ctx, "youtube").Debug().
		Str("video_id", id).
		Str("language", lang).
		Int("cues", len(cues)).
		Msg("transcript fetched")

	res := content.NewResult(text, content.MimePlain)
	res.Meta("video_id", id)
	res.Meta(content.MetaTitle, title)
	res.Meta("language", lang)
	res.Meta("transcript", cues)
	if sel.note != "" {
		res.Warn(sel.note)
	}
	for _, w := range registry.UnknownOptions(p.Name(), opts) {
		res.Warn(w)
	}
	return res, nil
}

// watchPage is what one watch-page fetch yields: the title when the markup
// exposes one, and the caption track list when the video has captions.
type watchPage struct {
	title  string
	tracks []captionTrack
}

func (p *Processor) fetchWatchPage(ctx context.Context, id string) (watchPage, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return watchPage{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, watchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.watch+id, nil)
	if err != nil {
		return watchPage{}, exterr.Wrap(exterr.KindValidation, "build watch request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return watchPage{}, exterr.Wrap(exterr.KindNetwork, fmt.Sprintf("fetch watch page for %s", id), err)
	}
	defer resp.Body.Close()

	if kind := statusKind(resp.StatusCode); kind != "" {
		return watchPage{}, exterr.Newf(kind, "watch page: status %d: %s", resp.StatusCode, readSnippet(resp.Body))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return watchPage{}, exterr.Wrap(exterr.KindNetwork, "read watch page", err)
	}
	body := string(raw)
	if isBlockPage(body) {
		return watchPage{}, exterr.New(exterr.KindBlocked, "watch page served a block interstitial")
	}

	tracks, err := captionTracks(body)
	if err != nil {
		return watchPage{}, err
	}
	return watchPage{title: pageTitle(body), tracks: tracks}, nil
}

// statusKind classifies watch and timedtext responses. YouTube answers 403
// when it blocks a client, not for missing authorization.
func statusKind(status int) exterr.Kind {
	if status == http.StatusForbidden {
		return exterr.KindBlocked
	}
	return exterr.FromHTTPStatus(status)
}

// Fragments of the consent and sorry interstitials YouTube serves with
// status 200 when it refuses a client.
var blockSignatures = []string{
	"our systems have detected unusual traffic",
	"/sorry/index",
	"g-recaptcha",
}

func isBlockPage(body string) bool {
	lower := strings.ToLower(body)
	for _, sig := range blockSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// readSnippet pulls a short error-body excerpt for diagnostics.
func readSnippet(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, errSnippet))
	return strings.TrimSpace(string(raw))
}
