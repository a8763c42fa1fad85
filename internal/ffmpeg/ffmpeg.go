// SPDX-License-Identifier: MIT

// Package ffmpeg shells out to the ffmpeg and ffprobe binaries for media
// probing, audio demuxing and segment cutting. Children run in their own
// process group so cancellation reaps forked helpers as well.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/procgroup"
)

var (
	startTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccore_ffmpeg_start_total",
		Help: "Total number of ffmpeg/ffprobe process starts",
	}, []string{"result"})

	exitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccore_ffmpeg_exit_total",
		Help: "Total number of ffmpeg/ffprobe process exits",
	}, []string{"reason"})
)

const (
	defaultKillGrace = 5 * time.Second
	ringCapacity     = 64
	stderrTailLines  = 8
)

// Tool invokes ffmpeg and ffprobe with supervised lifecycles. The zero value
// is unusable; construct with New.
type Tool struct {
	FFmpegPath  string
	FFprobePath string

	killGrace time.Duration

	availOnce sync.Once
	avail     bool
}

// New returns a Tool bound to the ffmpeg and ffprobe binaries on PATH, or to
// the paths named by CCORE_FFMPEG_PATH and CCORE_FFPROBE_PATH.
func New() *Tool {
	return &Tool{
		FFmpegPath:  config.ParseString("CCORE_FFMPEG_PATH", "ffmpeg"),
		FFprobePath: config.ParseString("CCORE_FFPROBE_PATH", "ffprobe"),
		killGrace:   defaultKillGrace,
	}
}

// Available reports whether both binaries resolve. The lookup runs once and
// the result is cached for the lifetime of the Tool.
func (t *Tool) Available() bool {
	t.availOnce.Do(func() {
		_, ffmpegErr := exec.LookPath(t.FFmpegPath)
		_, ffprobeErr := exec.LookPath(t.FFprobePath)
		t.avail = ffmpegErr == nil && ffprobeErr == nil
	})
	return t.avail
}

// ProbeResult is the subset of ffprobe output the pipeline consumes.
type ProbeResult struct {
	Format  Format   `json:"format"`
	Streams []Stream `json:"streams"`
}

// Format describes the container. ffprobe encodes numbers as JSON strings.
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

// Stream describes one elementary stream.
type Stream struct {
	Index      int    `json:"index"`
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	BitRate    string `json:"bit_rate"`
	Channels   int    `json:"channels"`
	SampleRate string `json:"sample_rate"`
}

// DurationSeconds returns the container duration, or 0 when ffprobe did not
// report one.
func (p *ProbeResult) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return d
}

// score ranks a stream by bitrate, channel count and sample rate. Channels
// dominate so a stereo track beats a high-bitrate mono one.
func (s Stream) score() int {
	score := s.Channels * 10
	if br, err := strconv.ParseInt(s.BitRate, 10, 64); err == nil {
		score += int(br / 1_000_000)
	}
	if sr, err := strconv.Atoi(s.SampleRate); err == nil {
		score += sr / 48000
	}
	return score
}

// BestAudioStream picks the highest-scoring audio stream and returns its
// ordinal among audio streams, matching ffmpeg's 0:a:N selector. The first
// stream wins ties. ok is false when the input has no audio.
func BestAudioStream(streams []Stream) (ordinal int, ok bool) {
	best := -1
	bestScore := -1
	audio := 0
	for _, s := range streams {
		if s.CodecType != "audio" {
			continue
		}
		if sc := s.score(); sc > bestScore {
			bestScore = sc
			best = audio
		}
		audio++
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// Probe runs ffprobe against path and decodes the container format and
// stream layout.
func (t *Tool) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	out, err := t.run(ctx, t.FFprobePath, args)
	if err != nil {
		return nil, err
	}
	var res ProbeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, exterr.Wrap(exterr.KindParse, "decode ffprobe output", err)
	}
	return &res, nil
}

// ExtractAudio demuxes one audio stream of src into an MP3 file at dst.
// ordinal counts audio streams, not container streams.
func (t *Tool) ExtractAudio(ctx context.Context, src, dst string, ordinal int) error {
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-i", src,
		"-map", fmt.Sprintf("0:a:%d", ordinal),
		"-codec:a", "libmp3lame", "-q:a", "2",
		"-y", dst,
	}
	_, err := t.run(ctx, t.FFmpegPath, args)
	return err
}

// CutSegment re-encodes the slice [start, start+length) of src into dst.
// Seeking before the input keeps cuts on long files fast; the re-encode
// keeps them accurate.
func (t *Tool) CutSegment(ctx context.Context, src, dst string, start, length time.Duration) error {
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-i", src,
		"-codec:a", "libmp3lame", "-q:a", "2",
		"-y", dst,
	}
	_, err := t.run(ctx, t.FFmpegPath, args)
	return err
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// run executes one child to completion, capturing stdout whole and stderr in
// a line ring. Cancellation terminates the process group and reaps the child
// before returning.
func (t *Tool) run(ctx context.Context, bin string, args []string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := log.WithComponentFromContext(ctx, "ffmpeg")
	name := filepath.Base(bin)

	ring := NewLineRing(ringCapacity)
	var stdout bytes.Buffer

	cmd := exec.Command(bin, args...) // #nosec G204 -- args are composed internally
	procgroup.Set(cmd)
	cmd.Stdout = &stdout
	cmd.Stderr = ring

	logger.Debug().Str("command", cmd.String()).Msg("starting process")
	if err := cmd.Start(); err != nil {
		startTotal.WithLabelValues("error").Inc()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, exterr.Wrap(exterr.KindEngineUnavailable, name+" not found", err)
		}
		return nil, exterr.Wrap(exterr.KindExtraction, name+" start failed", err)
	}
	startTotal.WithLabelValues("ok").Inc()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = procgroup.Terminate(cmd, waitCh, t.killGrace)
		exitTotal.WithLabelValues("ctx_cancel").Inc()
		logger.Debug().Str("bin", name).Msg("process cancelled")
		return nil, ctx.Err()
	case err := <-waitCh:
		if err != nil {
			exitTotal.WithLabelValues("error").Inc()
			code := 1
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			}
			tail := ring.LastN(stderrTailLines)
			logger.Error().
				Str("bin", name).
				Int("exit_code", code).
				Strs("stderr", tail).
				Msg("process failed")
			msg := fmt.Sprintf("%s exited with code %d", name, code)
			if len(tail) > 0 {
				msg += ": " + strings.Join(tail, "; ")
			}
			return nil, exterr.Wrap(exterr.KindExtraction, msg, err)
		}
		exitTotal.WithLabelValues("clean").Inc()
		return stdout.Bytes(), nil
	}
}
