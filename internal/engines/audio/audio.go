// SPDX-License-Identifier: MIT

// Package audio implements the transcription pipeline: long files are cut
// into contiguous segments, transcribed with bounded concurrency and joined
// in segment order. Failures in one segment never cancel the others.
package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/ffmpeg"
	"github.com/ManuGH/ccore/internal/fsutil"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/metrics"
	"github.com/ManuGH/ccore/internal/registry"
	"github.com/ManuGH/ccore/internal/retry"
	"github.com/ManuGH/ccore/internal/stt"
	"github.com/ManuGH/ccore/internal/telemetry"
)

// segmentThreshold is the duration above which a file is cut before
// transcription. Cuts are equal slices of at most this length.
const segmentThreshold = 10 * time.Minute

// mediaTool is the slice of ffmpeg the pipeline needs.
type mediaTool interface {
	Available() bool
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
	CutSegment(ctx context.Context, src, dst string, start, length time.Duration) error
}

// Processor transcribes audio files through a speech-to-text backend.
type Processor struct {
	defaults config.Audio
	policy   config.Retry
	tool     mediaTool
	factory  func(provider, model string) (stt.Transcriber, error)
}

func New(defaults config.Audio, policy config.Retry, tool *ffmpeg.Tool) *Processor {
	return &Processor{
		defaults: defaults,
		policy:   policy,
		tool:     tool,
		factory:  stt.New,
	}
}

func (p *Processor) Name() string { return "audio" }

func (p *Processor) Capabilities() registry.Capabilities {
	return registry.Capabilities{
		MIMETypes:  []string{"audio/*"},
		Extensions: []string{".mp3", ".wav", ".m4a", ".aac", ".ogg", ".oga", ".flac", ".opus", ".wma"},
		Priority:   50,
		Requires:   []string{"ffmpeg", "ffprobe"},
		Category:   content.CategoryAudio,
	}
}

func (p *Processor) Available() bool { return p.tool.Available() }

func (p *Processor) Extract(ctx context.Context, src *content.Source, opts map[string]any) (*content.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if src.FilePath == "" {
		return nil, exterr.New(exterr.KindValidation, "audio engine requires a file source")
	}
	if _, err := os.Stat(src.FilePath); err != nil {
		return nil, exterr.Wrap(exterr.KindOf(err), "stat audio file", err)
	}

	logger := log.WithComponentFromContext(ctx, "audio")

	probe, err := p.tool.Probe(ctx, src.FilePath)
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}
	duration := probe.DurationSeconds()

	transcriber, warnings, err := p.newTranscriber(ctx, src)
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}
	limit, clampWarnings := p.concurrency(ctx, src)
	warnings = append(warnings, clampWarnings...)

	paths := []string{src.FilePath}
	if duration > segmentThreshold.Seconds() {
		ws, wsErr := fsutil.NewWorkspace("audio")
		if wsErr != nil {
			return nil, exterr.Wrap(exterr.KindFatal, "create audio workspace", wsErr)
		}
		defer func() { _ = ws.Close() }()

		paths, err = p.cutSegments(ctx, src.FilePath, ws, duration)
		if err != nil {
			return nil, exterr.WithEngine(p.Name(), err)
		}
	}

	logger.Debug().
		Float64("duration_seconds", duration).
		Int("segments", len(paths)).
		Int("concurrency", limit).
		Msg("starting transcription")

	texts, err := p.transcribeAll(ctx, transcriber, paths, limit)
	if err != nil {
		return nil, exterr.WithEngine(p.Name(), err)
	}

	res := content.NewResult(strings.Join(texts, "\n"), content.MimePlain)
	res.Meta("segments_count", len(paths))
	if duration > 0 {
		res.Meta("duration_seconds", duration)
	}
	for _, w := range warnings {
		res.Warn(w)
	}
	for _, w := range registry.UnknownOptions(p.Name(), opts) {
		res.Warn(w)
	}
	return res, nil
}

// newTranscriber resolves the backend. Caller overrides are honoured only as
// a provider and model pair; a half pair or a rejected pair falls back to
// the configured defaults and transcription continues.
func (p *Processor) newTranscriber(ctx context.Context, src *content.Source) (stt.Transcriber, []string, error) {
	logger := log.WithComponentFromContext(ctx, "audio")
	var warnings []string

	hasProvider, hasModel := src.AudioProvider != "", src.AudioModel != ""
	switch {
	case hasProvider && hasModel:
		tr, err := p.factory(src.AudioProvider, src.AudioModel)
		if err == nil {
			logger.Debug().
				Str("provider", src.AudioProvider).
				Str("model", src.AudioModel).
				Msg("using custom transcriber")
			return tr, warnings, nil
		}
		logger.Error().Err(err).
			Str("provider", src.AudioProvider).
			Str("model", src.AudioModel).
			Msg("custom transcriber rejected, using default")
		warnings = append(warnings, fmt.Sprintf("custom transcriber %s/%s rejected, using default", src.AudioProvider, src.AudioModel))
	case hasProvider != hasModel:
		logger.Warn().
			Str("provider", src.AudioProvider).
			Str("model", src.AudioModel).
			Msg("audio provider and model must be overridden together, using default")
		warnings = append(warnings, "audio provider and model must be overridden together, using default")
	}

	provider := p.defaults.Provider
	if provider == "" {
		provider = config.DefaultSTTProvider
	}
	model := p.defaults.Model
	if model == "" {
		model = config.DefaultSTTModel
	}
	tr, err := p.factory(provider, model)
	if err != nil {
		return nil, warnings, exterr.Wrap(exterr.KindValidation, "construct transcriber", err)
	}
	return tr, warnings, nil
}

// concurrency resolves the admission limit: request override, then config,
// then the default. Out-of-range values warn and fall back to the default.
func (p *Processor) concurrency(ctx context.Context, src *content.Source) (int, []string) {
	limit := p.defaults.Concurrency
	if limit == 0 {
		limit = config.DefaultAudioConcurrency
	}
	if src.AudioConcurrency != 0 {
		limit = src.AudioConcurrency
	}
	if limit < config.MinAudioConcurrency || limit > config.MaxAudioConcurrency {
		logger := log.WithComponentFromContext(ctx, "audio")
		logger.Warn().
			Int("requested", limit).
			Msg("audio concurrency out of range, using default")
		return config.DefaultAudioConcurrency, []string{
			fmt.Sprintf("audio concurrency %d out of range [%d,%d], using %d",
				limit, config.MinAudioConcurrency, config.MaxAudioConcurrency, config.DefaultAudioConcurrency),
		}
	}
	return limit, nil
}

// cutSegments slices the file into ceil(duration/threshold) equal pieces.
func (p *Processor) cutSegments(ctx context.Context, src string, ws *fsutil.Workspace, duration float64) ([]string, error) {
	count := int(math.Ceil(duration / segmentThreshold.Seconds()))
	length := time.Duration(duration / float64(count) * float64(time.Second))

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		dst, err := ws.Path(fmt.Sprintf("segment_%03d.mp3", i))
		if err != nil {
			return nil, exterr.Wrap(exterr.KindFatal, "confine segment path", err)
		}
		if err := p.tool.CutSegment(ctx, src, dst, time.Duration(i)*length, length); err != nil {
			return nil, err
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

// transcribeAll fans the segments out under the admission gate and joins the
// transcripts in index order. Every segment runs to a terminal state before
// failures are reported, so one bad segment never cancels its siblings.
func (p *Processor) transcribeAll(ctx context.Context, tr stt.Transcriber, paths []string, limit int) ([]string, error) {
	ctx, span := telemetry.Tracer("ccore.audio").Start(ctx, "audio.transcribe")
	span.SetAttributes(telemetry.AudioAttributes(len(paths), limit)...)
	defer span.End()

	texts := make([]string, len(paths))
	errs := make([]error, len(paths))

	sem := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				errs[i] = err
				return
			}
			defer sem.Release(1)

			errs[i] = retry.Do(ctx, p.policy, fmt.Sprintf("transcribe segment %d", i), func() error {
				text, terr := tr.Transcribe(ctx, path)
				if terr != nil {
					return terr
				}
				texts[i] = text
				return nil
			})
		}()
	}
	wg.Wait()

	var failed []exterr.SegmentError
	for i, err := range errs {
		if err == nil {
			metrics.IncAudioSegment("success")
			continue
		}
		metrics.IncAudioSegment("failure")
		failed = append(failed, exterr.SegmentError{Index: i, Kind: exterr.KindOf(err), Msg: err.Error()})
	}
	if len(failed) > 0 {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		terr := &exterr.TranscriptionError{Segments: failed}
		span.RecordError(terr)
		span.SetStatus(codes.Error, terr.Error())
		return nil, terr
	}
	span.SetStatus(codes.Ok, "")
	return texts, nil
}
