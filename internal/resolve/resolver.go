// SPDX-License-Identifier: MIT

// Package resolve turns a MIME type plus configuration into an ordered engine
// chain. Resolution consults, from most to least specific: the caller's
// explicit engines, the per-MIME environment chain, the wildcard chain, the
// category chain, the legacy single-engine settings and finally registry
// auto-detection. The resolver performs no I/O; the router instantiates the
// returned names.
package resolve

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/registry"
)

// mimeCategory maps exact MIME types onto engine categories.
var mimeCategory = map[string]content.Category{
	content.MimePDF:      content.CategoryDocuments,
	content.MimeEPUB:     content.CategoryDocuments,
	content.MimeDOCX:     content.CategoryDocuments,
	content.MimeXLSX:     content.CategoryDocuments,
	content.MimePPTX:     content.CategoryDocuments,
	"application/msword": content.CategoryDocuments,
	content.MimeHTML:     content.CategoryURLs,
	content.MimePlain:    content.CategoryText,
	content.MimeMarkdown: content.CategoryText,
	content.MimeYouTube:  content.CategoryURLs,
}

// wildcardCategory maps MIME families onto categories. Images are processed
// as documents.
var wildcardCategory = map[string]content.Category{
	"image/*": content.CategoryDocuments,
	"audio/*": content.CategoryAudio,
	"video/*": content.CategoryVideo,
	"text/*":  content.CategoryText,
}

// CategoryFor returns the engine category of a MIME type, or "" when the
// type maps onto none.
func CategoryFor(mime string) content.Category {
	if cat, ok := mimeCategory[mime]; ok {
		return cat
	}
	for pattern, cat := range wildcardCategory {
		if content.MatchesMime(pattern, mime) {
			return cat
		}
	}
	return ""
}

// Resolver computes the engine chain for a single request.
type Resolver struct {
	cfg *config.Config
	reg *registry.Registry
	log zerolog.Logger
}

// New builds a resolver over a request's config snapshot and the process
// registry.
func New(cfg *config.Config, reg *registry.Registry) *Resolver {
	return &Resolver{cfg: cfg, reg: reg, log: log.WithComponent("resolver")}
}

// Resolve returns the ordered engine chain for mime. Explicit engines are
// returned verbatim once every name is known to the registry; otherwise the
// configuration sources are consulted in order, ending in auto-detection.
// A non-empty category overrides the table-derived one.
func (r *Resolver) Resolve(mime string, explicit []string, category content.Category) ([]string, error) {
	if len(explicit) > 0 {
		for _, name := range explicit {
			if _, ok := r.reg.Get(name); !ok {
				return nil, exterr.Newf(exterr.KindEngineNotFound,
					"engine %q is not registered (available: %s)",
					name, strings.Join(r.reg.AvailableEngines(), ", "))
			}
		}
		r.log.Debug().Strs("engines", explicit).Msg("using explicit engines")
		return append([]string(nil), explicit...), nil
	}

	// YouTube URLs always go to the youtube processor when it is usable,
	// ahead of any CCORE_ENGINE_URLS chain.
	if mime == content.MimeYouTube && r.reg.IsAvailable("youtube") {
		return []string{"youtube"}, nil
	}

	chain, err := r.vet(r.cfg.MIMEEngines[mime], config.MIMEEnvKey(mime))
	if err != nil {
		return nil, err
	}
	if len(chain) > 0 {
		r.log.Debug().Str("mime", mime).Strs("engines", chain).Msg("engines from MIME configuration")
		return chain, nil
	}

	if wildcard := content.WildcardOf(mime); wildcard != mime {
		chain, err = r.vet(r.cfg.MIMEEngines[wildcard], config.MIMEEnvKey(wildcard))
		if err != nil {
			return nil, err
		}
		if len(chain) > 0 {
			r.log.Debug().Str("wildcard", wildcard).Strs("engines", chain).Msg("engines from wildcard configuration")
			return chain, nil
		}
	}

	if category == "" {
		category = CategoryFor(mime)
	}
	if category != "" {
		chain, err = r.vet(r.cfg.CategoryEngines[string(category)], config.CategoryEnvKey(string(category)))
		if err != nil {
			return nil, err
		}
		if len(chain) > 0 {
			r.log.Debug().Str("category", string(category)).Strs("engines", chain).Msg("engines from category configuration")
			return chain, nil
		}
	}

	if name, source := r.legacyEngine(mime, category); name != "" && name != "auto" {
		chain, err = r.vet([]string{name}, source)
		if err != nil {
			return nil, err
		}
		if len(chain) > 0 {
			r.log.Debug().Str("engine", name).Str("source", source).Msg("engine from legacy configuration")
			return chain, nil
		}
	}

	var auto []string
	for _, p := range r.reg.FindByMIME(mime) {
		if r.reg.IsAvailable(p.Name()) {
			auto = append(auto, p.Name())
		}
	}
	if len(auto) > 0 {
		r.log.Debug().Str("mime", mime).Strs("engines", auto).Msg("auto-detected engines")
		return auto, nil
	}

	return nil, exterr.Newf(exterr.KindNoEngine,
		"no engines available for MIME type %q (available: %s)",
		mime, strings.Join(r.reg.AvailableEngines(), ", "))
}

// vet drops engine names the registry does not know. Under the fail policy
// an unknown name aborts resolution instead.
func (r *Resolver) vet(chain []string, source string) ([]string, error) {
	if len(chain) == 0 {
		return nil, nil
	}
	kept := make([]string, 0, len(chain))
	for _, name := range chain {
		if _, ok := r.reg.Get(name); ok {
			kept = append(kept, name)
			continue
		}
		if r.cfg.Fallback.OnError == config.OnErrorFail {
			return nil, exterr.Newf(exterr.KindEngineNotFound, "unknown engine %q in %s", name, source)
		}
		r.log.Warn().Str("engine", name).Str("source", source).Msg("unknown engine in configuration, dropping")
	}
	return kept, nil
}

// legacyEngine picks between the two coarse overrides: URLs and YouTube use
// the url engine, everything else the document engine.
func (r *Resolver) legacyEngine(mime string, category content.Category) (name, source string) {
	if category == content.CategoryURLs || mime == content.MimeHTML || mime == content.MimeYouTube {
		return r.cfg.URLEngine, "CCORE_URL_ENGINE"
	}
	return r.cfg.DocumentEngine, "CCORE_DOCUMENT_ENGINE"
}
