// SPDX-License-Identifier: MIT

// Package video implements the demux engine: the best audio stream of a
// video file is extracted to a scoped temp MP3 and handed to the audio
// pipeline for transcription. The artifact never outlives the request.
package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/ffmpeg"
	"github.com/ManuGH/ccore/internal/fsutil"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/registry"
)

// videoTool is the slice of ffmpeg the demux step needs.
type videoTool interface {
	Available() bool
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
	ExtractAudio(ctx context.Context, src, dst string, ordinal int) error
}

// transcriberEngine is the audio pipeline the demuxed track re-enters.
type transcriberEngine interface {
	Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error)
}

// Processor turns video files into transcripts via the audio pipeline.
type Processor struct {
	tool  videoTool
	audio transcriberEngine
}

func New(tool *ffmpeg.Tool, audio transcriberEngine) *Processor {
	return &Processor{tool: tool, audio: audio}
}

func (p *Processor) Name() string { return "video" }

func (p *Processor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes:  []string{"video/*"},
		Extensions: []string{".mp4", ".mpeg", ".mov", ".avi", ".mkv", ".webm"},
		Priority:   50,
		Requires:   []string{"ffmpeg", "ffprobe"},
		Category:   content.CategoryVideo,
	}
}

func (p *Processor) Available() bool { return p.tool.Available() }

func (p *Processor) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.FilePath == "" {
		return nil, exterr.New(exterr.KindValidation, "video engine requires a file source")
	}
	if _, err := os.Stat(src.FilePath); err != nil {
		return nil, exterr.Wrap(exterr.KindOf(err), "stat video file", err)
	}

	probe, err := p.tool.Probe(ctx, src.FilePath)
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}
	ordinal, ok := ffmpeg.BestAudioStream(probe.Streams)
	if !ok {
		return nil, exterr.WithEngine(p.Name(), exterr.New(exterr.KindUnsupported, "no audio stream in video"))
	}

	ws, err := fsutil.NewWorkspace("video")
	if err != nil {
		return nil, exterr.Wrap(exterr.KindFatal, "create video workspace", err)
	}
	defer func() { _ = ws.Close() }()

	base := strings.TrimSuffix(filepath.Base(src.FilePath), filepath.Ext(src.FilePath))
	dst, err := ws.Path(fmt.Sprintf("%s_audio.mp3", base))
	if err != nil {
		return nil, exterr.Wrap(exterr.KindFatal, "confine demux path", err)
	}
	if err := p.tool.ExtractAudio(ctx, src.FilePath, dst, ordinal); err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}
	log.WithComponentFromContext(ctx, "video").Debug().
		Str(log.FieldPath, filepath.Base(dst)).
		Int("stream", ordinal).
		Msg("audio track demuxed")

	// Re-enter the audio pipeline with the demuxed track. Audio overrides
	// on the original source travel along.
	demuxed := *src
	demuxed.URL = ""
	demuxed.FilePath = dst
	demuxed.MimeType = "audio/mpeg"

	res, err := p.audio.Extract(ctx, &demuxed, opts)
	if err != nil {
		return nil, err
	}
	if src.MimeType != "" {
		res.Meta("original_mime_type", src.MimeType)
	}
	return res, nil
}
