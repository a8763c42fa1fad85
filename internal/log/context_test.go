// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "simple id", id: "req-123", want: "req-123"},
		{name: "uuid id", id: "5f4dcc3b-5aa7-4f6e-9c1e-7f2a1b3c4d5e", want: "5f4dcc3b-5aa7-4f6e-9c1e-7f2a1b3c4d5e"},
		{name: "empty id", id: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(context.Background(), tt.id)
			assert.Equal(t, tt.want, RequestIDFromContext(ctx))
		})
	}
}

func TestRequestIDFromContextMissing(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(nil)) //nolint:staticcheck // nil context tolerated on purpose
}

func TestContextWithEngine(t *testing.T) {
	ctx := ContextWithEngine(context.Background(), "docling")
	assert.Equal(t, "docling", EngineFromContext(ctx))
	assert.Empty(t, EngineFromContext(context.Background()))
}

func TestWithContextEnrichesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-9")
	ctx = ContextWithEngine(ctx, "firecrawl")

	enriched := WithContext(ctx, logger)
	enriched.Info().Msg("extract started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-9", entry[FieldRequestID])
	assert.Equal(t, "firecrawl", entry[FieldEngine])
	assert.Equal(t, "extract started", entry["message"])
}

func TestWithContextNoFields(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithContext(context.Background(), logger)
	enriched.Info().Msg("plain")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	_, hasRequestID := entry[FieldRequestID]
	assert.False(t, hasRequestID)
	_, hasEngine := entry[FieldEngine]
	assert.False(t, hasEngine)
}

func TestWithComponentFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx := base.WithContext(ContextWithRequestID(context.Background(), "req-42"))

	logger := WithComponentFromContext(ctx, "router")
	logger.Info().Msg("chain built")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "router", entry[FieldComponent])
	assert.Equal(t, "req-42", entry[FieldRequestID])
}

func TestFromContextFallsBackToBase(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())
}

func TestFromContextUsesAttachedLogger(t *testing.T) {
	var buf bytes.Buffer
	attached := zerolog.New(&buf).Level(zerolog.WarnLevel)
	ctx := attached.WithContext(context.Background())

	l := FromContext(ctx)
	l.Warn().Msg("attached")

	assert.Contains(t, buf.String(), "attached")
}
