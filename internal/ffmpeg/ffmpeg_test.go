// SPDX-License-Identifier: MIT

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/ccore/internal/exterr"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake binaries use sh, unsupported on windows")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

const probeJSON = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "bit_rate": "128000", "channels": 2, "sample_rate": "48000"}
  ],
  "format": {"format_name": "mov,mp4,m4a", "duration": "1234.567", "bit_rate": "900000"}
}`

func TestProbeParsesOutput(t *testing.T) {
	dir := t.TempDir()
	probe := writeScript(t, dir, "ffprobe", fmt.Sprintf("cat <<'EOF'\n%s\nEOF", probeJSON))

	tool := &Tool{FFprobePath: probe, killGrace: time.Second}
	res, err := tool.Probe(context.Background(), "/tmp/in.mp4")
	require.NoError(t, err)

	assert.Equal(t, "mov,mp4,m4a", res.Format.FormatName)
	assert.InDelta(t, 1234.567, res.DurationSeconds(), 0.001)
	require.Len(t, res.Streams, 2)
	assert.Equal(t, "audio", res.Streams[1].CodecType)
	assert.Equal(t, 2, res.Streams[1].Channels)
}

func TestProbeReportsStderrTail(t *testing.T) {
	dir := t.TempDir()
	probe := writeScript(t, dir, "ffprobe", "echo 'in.mp4: Invalid data found' >&2; exit 2")

	tool := &Tool{FFprobePath: probe, killGrace: time.Second}
	_, err := tool.Probe(context.Background(), "/tmp/in.mp4")
	require.Error(t, err)

	assert.Equal(t, exterr.KindExtraction, exterr.KindOf(err))
	assert.Contains(t, err.Error(), "exited with code 2")
	assert.Contains(t, err.Error(), "Invalid data found")
}

func TestProbeRejectsBadJSON(t *testing.T) {
	dir := t.TempDir()
	probe := writeScript(t, dir, "ffprobe", "echo 'not json'")

	tool := &Tool{FFprobePath: probe, killGrace: time.Second}
	_, err := tool.Probe(context.Background(), "/tmp/in.mp4")
	require.Error(t, err)
	assert.Equal(t, exterr.KindParse, exterr.KindOf(err))
}

func TestRunContextCancelTerminatesGroup(t *testing.T) {
	dir := t.TempDir()
	// Ignores TERM so Terminate has to escalate to KILL.
	probe := writeScript(t, dir, "ffprobe", "trap '' TERM\nsleep 10")

	tool := &Tool{FFprobePath: probe, killGrace: 200 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tool.Probe(ctx, "/tmp/in.mp4")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	if elapsed > 3*time.Second {
		t.Fatalf("cancel took %s, expected grace escalation well under 3s", elapsed)
	}
}

func TestExtractAudioComposesArgs(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	ffmpeg := writeScript(t, dir, "ffmpeg", fmt.Sprintf("printf '%%s ' \"$@\" > %s", argsFile))

	tool := &Tool{FFmpegPath: ffmpeg, killGrace: time.Second}
	require.NoError(t, tool.ExtractAudio(context.Background(), "/tmp/in.mp4", "/tmp/out.mp3", 1))

	raw, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	got := string(raw)

	assert.Contains(t, got, "-map 0:a:1")
	assert.Contains(t, got, "-codec:a libmp3lame -q:a 2")
	assert.Contains(t, got, "-i /tmp/in.mp4")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(got), "-y /tmp/out.mp3"))
}

func TestCutSegmentComposesArgs(t *testing.T) {
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args.txt")
	ffmpeg := writeScript(t, dir, "ffmpeg", fmt.Sprintf("printf '%%s ' \"$@\" > %s", argsFile))

	tool := &Tool{FFmpegPath: ffmpeg, killGrace: time.Second}
	err := tool.CutSegment(context.Background(), "/tmp/in.mp3", "/tmp/seg.mp3", 10*time.Minute, 10*time.Minute)
	require.NoError(t, err)

	raw, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	got := string(raw)

	// Seek precedes the input for fast long-file cuts.
	assert.Contains(t, got, "-ss 600.000 -t 600.000 -i /tmp/in.mp3")
	assert.Contains(t, got, "-codec:a libmp3lame")
}

func TestBestAudioStream(t *testing.T) {
	audio := func(channels int, bitRate, sampleRate string) Stream {
		return Stream{CodecType: "audio", Channels: channels, BitRate: bitRate, SampleRate: sampleRate}
	}

	tests := []struct {
		name    string
		streams []Stream
		want    int
		ok      bool
	}{
		{
			name:    "channels beat bitrate",
			streams: []Stream{audio(1, "2500000", "44100"), audio(2, "128000", "48000")},
			want:    1,
			ok:      true,
		},
		{
			name:    "ordinal counts audio streams only",
			streams: []Stream{{CodecType: "video"}, audio(2, "128000", "48000")},
			want:    0,
			ok:      true,
		},
		{
			name:    "first stream wins ties",
			streams: []Stream{audio(2, "128000", "48000"), audio(2, "128000", "48000")},
			want:    0,
			ok:      true,
		},
		{
			name:    "bitrate breaks equal channels",
			streams: []Stream{audio(2, "128000", "48000"), audio(2, "4000000", "48000")},
			want:    1,
			ok:      true,
		},
		{
			name:    "missing numeric fields tolerated",
			streams: []Stream{audio(2, "", "")},
			want:    0,
			ok:      true,
		},
		{
			name:    "no audio streams",
			streams: []Stream{{CodecType: "video"}},
			ok:      false,
		},
		{
			name: "empty input",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BestAudioStream(tt.streams)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeScript(t, dir, "ffmpeg", "exit 0")
	ffprobe := writeScript(t, dir, "ffprobe", "exit 0")

	tool := &Tool{FFmpegPath: ffmpeg, FFprobePath: ffprobe}
	assert.True(t, tool.Available())

	missing := &Tool{FFmpegPath: filepath.Join(dir, "nope"), FFprobePath: ffprobe}
	assert.False(t, missing.Available())
}
