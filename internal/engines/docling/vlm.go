// SPDX-License-Identifier: MIT

package docling

import (
	"context"
	"strings"
	"sync"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/registry"
)

// Caption model presets selectable by short name.
const (
	graniteRepoID = "ibm-granite/granite-vision-3.3-2b"
	smolVLMRepoID = "HuggingFaceTB/SmolVLM-256M-Instruct"

	defaultCaptionPrompt = "Describe this image in detail. Include the type of visualization, " +
		"axes labels, data trends, and any text visible in the image."
)

// VLMProcessor runs the serve peer's vision pipeline. It understands complex
// layouts better than the standard pipeline and captions embedded pictures;
// captions land in result metadata, never in the exported text.
type VLMProcessor struct {
	cfg config.Docling
	cl  *client

	availOnce sync.Once
	avail     bool
}

func NewVLM(cfg config.Docling) *VLMProcessor {
	return &VLMProcessor{cfg: cfg, cl: newClient(cfg, "docling-vlm")}
}

func (p *VLMProcessor) Name() string { return "docling-vlm" }

func (p *VLMProcessor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes:  supportedMIMEs,
		Extensions: supportedExtensions,
		Priority:   65,
		Requires:   []string{"docling-serve"},
		Category:   content.CategoryDocuments,
	}
}

func (p *VLMProcessor) Available() bool {
	p.availOnce.Do(func() {
		p.avail = p.cfg.BaseURL != "" && p.cl.healthy()
	})
	return p.avail
}

func (p *VLMProcessor) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	co := convertOptions{
		pipeline:    registry.StringOption(opts, "pipeline", "vlm"),
		pictureDesc: registry.BoolOption(opts, "picture_description", true),
	}
	var model string
	if co.pictureDesc {
		model = strings.ToLower(registry.StringOption(opts, "picture_description_model", "granite"))
		repo := graniteRepoID
		if model == "smolvlm" {
			repo = smolVLMRepoID
		}
		co.pictureDescriptor = &pictureDescriptor{
			RepoID: repo,
			Prompt: registry.StringOption(opts, "picture_description_prompt", defaultCaptionPrompt),
			GenerationConfig: map[string]any{
				"max_new_tokens": 300,
				"do_sample":      false,
			},
		}
	}

	res, err := extract(ctx, p.Name(), p.cl, p.cfg, src, opts, co)
	if err != nil {
		return nil, err
	}
	if model != "" {
		res.Meta("vlm_model", model)
	}
	return res, nil
}
