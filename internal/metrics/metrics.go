// SPDX-License-Identifier: MIT

// Package metrics defines the Prometheus instruments for the extraction
// service. Instruments register through promauto on the default registry;
// the daemon exposes them on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Extraction pipeline metrics
	extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccore_extractions_total",
		Help: "Extraction requests by source kind and outcome",
	}, []string{"source", "outcome"}) // source=url|file|content, outcome=success|failure

	extractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ccore_extraction_duration_seconds",
		Help:    "End-to-end extraction time by source kind and outcome",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"source", "outcome"})

	engineAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccore_engine_attempts_total",
		Help: "Engine runs by engine and outcome",
	}, []string{"engine", "outcome"}) // outcome=success|failure|unavailable

	engineAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ccore_engine_attempt_duration_seconds",
		Help:    "Single engine run time",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"engine"})

	engineFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccore_engine_failures_total",
		Help: "Engine failures by engine and error kind",
	}, []string{"engine", "kind"})

	fallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ccore_fallbacks_total",
		Help: "Extractions that succeeded only after at least one engine failed",
	})

	engineAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ccore_engine_available",
		Help: "Whether the engine reported itself available at the last probe (1) or not (0)",
	}, []string{"engine"})

	// Audio transcription metrics
	audioSegmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccore_audio_segments_total",
		Help: "Transcribed audio segments by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	// HTTP metrics
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ccore_http_request_duration_seconds",
		Help:    "HTTP request latency by route, method and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "code"})

	// Process supervision metrics
	procSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccore_proc_signals_total",
		Help: "Signals delivered to spawned process groups",
	}, []string{"signal", "outcome"}) // outcome=sent|error

	procWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ccore_proc_waits_total",
		Help: "Process group wait results",
	}, []string{"outcome"}) // outcome=exit0|exit_nonzero|forced_exit0|forced_error
)

// RecordExtraction records a finished extraction request and its latency.
func RecordExtraction(source, outcome string, d time.Duration) {
	extractionsTotal.WithLabelValues(source, outcome).Inc()
	extractionDuration.WithLabelValues(source, outcome).Observe(d.Seconds())
}

// RecordEngineAttempt records one engine run and its latency.
func RecordEngineAttempt(engine, outcome string, d time.Duration) {
	engineAttemptsTotal.WithLabelValues(engine, outcome).Inc()
	engineAttemptDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// IncEngineUnavailable counts an engine skipped because it reported itself
// unavailable. Skips have no run time, so the duration histogram is not fed.
func IncEngineUnavailable(engine string) {
	engineAttemptsTotal.WithLabelValues(engine, "unavailable").Inc()
}

func IncEngineFailure(engine, kind string) {
	engineFailuresTotal.WithLabelValues(engine, kind).Inc()
}

func IncFallback() { fallbacksTotal.Inc() }

// RecordEngineAvailability publishes the result of an availability probe.
func RecordEngineAvailability(engine string, available bool) {
	v := 0.0
	if available {
		v = 1
	}
	engineAvailable.WithLabelValues(engine).Set(v)
}

func IncAudioSegment(outcome string) { audioSegmentsTotal.WithLabelValues(outcome).Inc() }

// ObserveHTTPRequest records a served request.
func ObserveHTTPRequest(route, method string, code int, d time.Duration) {
	httpRequestDuration.WithLabelValues(route, method, strconv.Itoa(code)).Observe(d.Seconds())
}

func IncProcSignal(signal, outcome string) {
	procSignalsTotal.WithLabelValues(signal, outcome).Inc()
}

func IncProcWait(outcome string) { procWaitsTotal.WithLabelValues(outcome).Inc() }
