// SPDX-License-Identifier: MIT

package stt

import (
	"context"
	"errors"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
)

// openAI transcribes through the OpenAI audio API. The client picks up
// OPENAI_API_KEY from the environment.
type openAI struct {
	client openai.Client
	model  openai.AudioModel
}

func newOpenAI(model string, opts ...option.RequestOption) *openAI {
	// SDK-internal retries are disabled; the audio retry policy owns
	// attempt accounting.
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	return &openAI{
		client: openai.NewClient(opts...),
		model:  openai.AudioModel(model),
	}
}

func (o *openAI) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is a pipeline-owned temp file
	if err != nil {
		return "", exterr.Wrap(exterr.KindOf(err), "open audio file", err)
	}
	defer func() { _ = f.Close() }()

	resp, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  f,
		Model: o.model,
	})
	if err != nil {
		return "", classifyRequestError(err)
	}

	log.WithComponentFromContext(ctx, "stt").Debug().
		Str("model", string(o.model)).
		Int("chars", len(resp.Text)).
		Msg("segment transcribed")
	return resp.Text, nil
}

// classifyRequestError maps transport and API failures onto the error
// taxonomy so the retry policy can tell transient from terminal.
func classifyRequestError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		kind := exterr.FromHTTPStatus(apiErr.StatusCode)
		if kind == "" {
			kind = exterr.KindTranscription
		}
		return exterr.Wrap(kind, "transcription request rejected", err)
	}
	return exterr.Wrap(exterr.KindOf(err), "transcription request failed", err)
}
