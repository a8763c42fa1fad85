// SPDX-License-Identifier: MIT

// Package extract routes extraction requests: it classifies the source,
// resolves the engine chain and runs it under the fallback policy and the
// overall time budget. The first successful engine wins; total failure
// surfaces the ordered attempt record.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/ccore/internal/config"
	"github.com/ManuGH/ccore/internal/content"
	"github.com/ManuGH/ccore/internal/detect"
	"github.com/ManuGH/ccore/internal/exterr"
	"github.com/ManuGH/ccore/internal/log"
	"github.com/ManuGH/ccore/internal/metrics"
	"github.com/ManuGH/ccore/internal/registry"
	"github.com/ManuGH/ccore/internal/resolve"
	"github.com/ManuGH/ccore/internal/telemetry"
)

// Router executes extraction requests against a fixed registry and a config
// snapshot. It is safe for concurrent use.
type Router struct {
	cfg *config.Config
	reg *registry.Registry
	res *resolve.Resolver
}

func NewRouter(cfg *config.Config, reg *registry.Registry) *Router {
	return &Router{cfg: cfg, reg: reg, res: resolve.New(cfg, reg)}
}

// Extract runs the full pipeline for one source. The returned error is
// always classifiable via exterr.KindOf.
func (rt *Router) Extract(ctx context.Context, src *content.Source) (*content.ExtractionResult, error) {
	if err := src.Validate(); err != nil {
		return nil, exterr.Wrap(exterr.KindValidation, "invalid source", err)
	}
	if log.RequestIDFromContext(ctx) == "" {
		ctx = log.ContextWithRequestID(ctx, uuid.NewString())
	}
	ctx, cancel := context.WithTimeout(ctx, rt.budget(src))
	defer cancel()

	start := time.Now()
	result, err := rt.route(ctx, src)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.RecordExtraction(string(src.Kind()), outcome, time.Since(start))
	return result, err
}

// route classifies the source, resolves the engine chain and runs it under
// the fallback policy.
func (rt *Router) route(ctx context.Context, src *content.Source) (*content.ExtractionResult, error) {
	logger := log.WithComponentFromContext(ctx, "router")
	ctx, span := telemetry.Tracer("ccore.extract").Start(ctx, "extract")
	defer span.End()

	mime, err := rt.mimeOf(src)
	if err != nil {
		return nil, spanFail(span, err)
	}
	chain, err := rt.res.Resolve(mime, src.Engines, "")
	if err != nil {
		return nil, spanFail(span, err)
	}
	if !rt.cfg.Fallback.Enabled {
		chain = chain[:1]
	}
	if limit := rt.cfg.Fallback.MaxAttempts; limit > 0 && len(chain) > limit {
		chain = chain[:limit]
	}
	span.SetAttributes(telemetry.ExtractionAttributes(string(src.Kind()), mime, chain)...)
	logger.Info().Str("mime", mime).Str("source", string(src.Kind())).
		Strs("engines", chain).Msg("extraction started")

	res, err := rt.runChain(ctx, logger, src, chain)
	if err != nil {
		return nil, spanFail(span, err)
	}
	span.SetAttributes(telemetry.ResultAttributes(res.EngineUsed, len(res.Content), len(res.Warnings))...)
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// spanFail marks the span with the classified failure and passes the error
// through.
func spanFail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(telemetry.ErrorAttributes(string(exterr.KindOf(err)))...)
	return err
}

func (rt *Router) runChain(ctx context.Context, logger zerolog.Logger, src *content.Source, chain []string) (*content.ExtractionResult, error) {
	var (
		attempts []exterr.Attempt
		warnings []string
	)
	for _, name := range chain {
		if ctx.Err() != nil {
			break
		}

		proc, ok := rt.reg.Get(name)
		if !ok || !rt.reg.IsAvailable(name) {
			metrics.IncEngineUnavailable(name)
			attempts = append(attempts, exterr.Attempt{
				Engine:  name,
				Kind:    exterr.KindEngineUnavailable,
				Message: "engine is not available",
			})
			if rt.cfg.Fallback.OnError == config.OnErrorFail {
				return nil, exterr.Newf(exterr.KindEngineUnavailable, "engine %q is not available", name)
			}
			if rt.cfg.Fallback.OnError == config.OnErrorWarn {
				warnings = append(warnings, fmt.Sprintf("engine %s unavailable, skipped", name))
			}
			logger.Warn().Str(log.FieldEngine, name).Msg("engine unavailable, skipped")
			continue
		}

		engineCtx := log.ContextWithEngine(ctx, name)
		engineCtx, attemptSpan := telemetry.Tracer("ccore.extract").Start(engineCtx, "extract.attempt")
		attemptSpan.SetAttributes(attribute.String(telemetry.ExtractEngineKey, name))
		attemptStart := time.Now()
		res, err := proc.Extract(engineCtx, src, rt.optionsFor(name, src))
		if err == nil {
			attemptSpan.SetStatus(codes.Ok, "")
			attemptSpan.End()
			metrics.RecordEngineAttempt(name, "success", time.Since(attemptStart))
			return rt.finish(logger, src, name, res, warnings, attempts), nil
		}
		attemptSpan.RecordError(err)
		attemptSpan.SetStatus(codes.Error, err.Error())
		attemptSpan.End()
		metrics.RecordEngineAttempt(name, "failure", time.Since(attemptStart))

		kind := exterr.KindOf(err)
		metrics.IncEngineFailure(name, string(kind))
		attempts = append(attempts, exterr.Attempt{Engine: name, Kind: kind, Message: err.Error()})

		if ctx.Err() != nil {
			break
		}
		if rt.cfg.Fallback.IsFatal(string(kind)) {
			logger.Error().Err(err).Str(log.FieldEngine, name).Str("kind", string(kind)).
				Msg("fatal engine error, aborting chain")
			return nil, err
		}
		switch rt.cfg.Fallback.OnError {
		case config.OnErrorFail:
			logger.Error().Err(err).Str(log.FieldEngine, name).Msg("engine failed, fallback disabled by policy")
			return nil, err
		case config.OnErrorWarn:
			warnings = append(warnings, fmt.Sprintf("engine %s failed: %s", name, err.Error()))
			logger.Warn().Err(err).Str(log.FieldEngine, name).Msg("engine failed, trying next")
		default:
			logger.Debug().Err(err).Str(log.FieldEngine, name).Msg("engine failed, trying next")
		}
	}

	chainErr := &exterr.ChainError{Attempts: attempts}
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind := exterr.KindCancelled
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			kind = exterr.KindTimeout
		}
		logger.Error().Str("kind", string(kind)).Int("attempts", len(attempts)).
			Msg("extraction budget exhausted")
		return nil, exterr.Wrap(kind, "extraction budget exhausted", chainErr)
	}
	logger.Error().Int("attempts", len(attempts)).Msg("all engines failed")
	return nil, chainErr
}

// finish stamps the routing metadata and folds the accumulated chain
// warnings into the winning result.
func (rt *Router) finish(logger zerolog.Logger, src *content.Source, engine string, res *content.Result, warnings []string, attempts []exterr.Attempt) *content.ExtractionResult {
	res.Meta(content.MetaEngine, engine)
	if _, ok := res.Metadata[content.MetaSource]; !ok {
		res.Meta(content.MetaSource, src.Origin())
	}
	res.Meta(content.MetaTime, time.Now().UTC().Format(time.RFC3339))
	if _, ok := res.Metadata[content.MetaContentLength]; !ok {
		res.Meta(content.MetaContentLength, len(res.Content))
	}

	merged := append(warnings, res.Warnings...)
	if len(attempts) > 0 {
		metrics.IncFallback()
		failed := make([]string, 0, len(attempts))
		for _, a := range attempts {
			failed = append(failed, fmt.Sprintf("%s (%s)", a.Engine, a.Kind))
		}
		merged = append(merged, fmt.Sprintf("used fallback engine %q after failures: %s",
			engine, strings.Join(failed, ", ")))
	}

	logger.Info().Str(log.FieldEngine, engine).Int("chars", len(res.Content)).
		Int("warnings", len(merged)).Msg("extraction succeeded")

	return &content.ExtractionResult{
		Content:    res.Content,
		SourceType: string(src.Kind()),
		EngineUsed: engine,
		MimeType:   res.MimeType,
		Metadata:   res.Metadata,
		Warnings:   merged,
	}
}

// mimeOf resolves the MIME type of the source: the caller's declaration
// wins, otherwise the origin is classified.
func (rt *Router) mimeOf(src *content.Source) (string, error) {
	if m := strings.ToLower(strings.TrimSpace(src.MimeType)); m != "" {
		return m, nil
	}
	switch src.Kind() {
	case content.SourceURL:
		return detect.URL(src.URL), nil
	case content.SourceFile:
		return detect.File(src.FilePath)
	default:
		return detect.Content(src.Content), nil
	}
}

// budget applies the per-request timeout override on top of the configured
// limit, with the same clamping.
func (rt *Router) budget(src *content.Source) time.Duration {
	if src.TimeoutSeconds <= 0 {
		return rt.cfg.Timeout()
	}
	c := *rt.cfg
	c.TimeoutSeconds = src.TimeoutSeconds
	return c.Timeout()
}

// optionsFor merges the configured engine options with the request-level
// ones; request entries win.
func (rt *Router) optionsFor(name string, src *content.Source) map[string]any {
	if len(rt.cfg.EngineOptions[name]) == 0 && len(src.Options) == 0 {
		return nil
	}
	opts := make(map[string]any, len(rt.cfg.EngineOptions[name])+len(src.Options))
	for k, v := range rt.cfg.EngineOptions[name] {
		opts[k] = v
	}
	for k, v := range src.Options {
		opts[k] = v
	}
	return opts
}
