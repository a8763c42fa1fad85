// SPDX-License-Identifier: MIT

package extract

import (
	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/engines/audio"
	"github.com/ManuGH/ccore/internal/engines/docling"
	"github.com/ManuGH/ccore/internal/engines/office"
	"github.com/ManuGH/ccore/internal/engines/pdf"
	"github.com/ManuGH/ccore/internal/engines/text"
	"github.com/ManuGH/ccore/internal/engines/url"
	"github.com/ManuGH/ccore/internal/engines/video"
	"github.com/ManuGH/ccore/internal/engines/youtube"
	"github.com/ManuGH/ccore/internal/ffmpeg"
	"github.com/ManuGH/ccore/internal/registry"
)

// NewRegistry wires every engine to its configuration slice and builds the
// process registry. Each engine's availability is probed on first use and
// memoized for the process lifetime.
func NewRegistry(cfg *config.Config) *registry.Registry {
	tool := ffmpeg.New()
	transcriber := audio.New(cfg.Audio, cfg.Retries.Audio, tool)

	b := registry.NewBuilder()
	b.MustRegister(text.New())
	b.MustRegister(pdf.New())
	b.MustRegister(pdf.NewMarkdown())
	b.MustRegister(office.New())
	b.MustRegister(docling.New(cfg.Docling))
	b.MustRegister(docling.NewVLM(cfg.Docling))
	b.MustRegister(url.NewFirecrawl(cfg.FirecrawlBaseURL, cfg.Retries.URLAPI))
	b.MustRegister(url.NewJina(cfg.Retries.URLAPI))
	b.MustRegister(url.NewHeadless(cfg.Retries.URLNetwork))
	b.MustRegister(url.NewBasic(cfg.Retries.URLNetwork))
	b.MustRegister(transcriber)
	b.MustRegister(video.New(tool, transcriber))
	b.MustRegister(youtube.New(cfg.YouTube, cfg.Retries.YouTube))
	return b.Build()
}
