// Package observe provides application-wide observability primitives for
// Soundwave: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Soundwave metrics.
const meterName = "github.com/ShridharB-cloud/soundwave-dreams"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscriptionDuration tracks speech-to-text transcription latency.
	TranscriptionDuration metric.Float64Histogram

	// IntentDuration tracks intent resolution latency.
	IntentDuration metric.Float64Histogram

	// SpeechDuration tracks feedback synthesis latency.
	SpeechDuration metric.Float64Histogram

	// PipelineDuration tracks end-to-end latency from capture stop to
	// dispatched command.
	PipelineDuration metric.Float64Histogram

	// --- Counters ---

	// PipelineRuns counts voice pipeline runs. Use with attribute:
	//   attribute.String("status", ...) — "ok", "silent", or "error"
	PipelineRuns metric.Int64Counter

	// CommandsDispatched counts dispatched player commands. Use with attribute:
	//   attribute.String("action", ...)
	CommandsDispatched metric.Int64Counter

	// WakeTriggers counts wake phrase detections.
	WakeTriggers metric.Int64Counter

	// --- Error counters ---

	// GatewayErrors counts gateway failures. Use with attributes:
	//   attribute.String("gateway", ...), attribute.String("stage", ...)
	GatewayErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of capture sessions in flight
	// (0 or 1 in the current design, but the instrument allows more).
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscriptionDuration, err = m.Float64Histogram("soundwave.transcription.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.IntentDuration, err = m.Float64Histogram("soundwave.intent.duration",
		metric.WithDescription("Latency of intent resolution."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SpeechDuration, err = m.Float64Histogram("soundwave.speech.duration",
		metric.WithDescription("Latency of feedback speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineDuration, err = m.Float64Histogram("soundwave.pipeline.duration",
		metric.WithDescription("End-to-end latency from capture stop to dispatched command."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.PipelineRuns, err = m.Int64Counter("soundwave.pipeline.runs",
		metric.WithDescription("Total voice pipeline runs by status."),
	); err != nil {
		return nil, err
	}
	if met.CommandsDispatched, err = m.Int64Counter("soundwave.commands.dispatched",
		metric.WithDescription("Total dispatched player commands by action."),
	); err != nil {
		return nil, err
	}
	if met.WakeTriggers, err = m.Int64Counter("soundwave.wake.triggers",
		metric.WithDescription("Total wake phrase detections."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.GatewayErrors, err = m.Int64Counter("soundwave.gateway.errors",
		metric.WithDescription("Total gateway failures by gateway and stage."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("soundwave.active_sessions",
		metric.WithDescription("Number of capture sessions in flight."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("soundwave.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordPipelineRun records a pipeline run counter increment. status is one
// of "ok", "silent", or "error".
func (m *Metrics) RecordPipelineRun(ctx context.Context, status string) {
	m.PipelineRuns.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordCommand records a dispatched command counter increment.
func (m *Metrics) RecordCommand(ctx context.Context, action string) {
	m.CommandsDispatched.Add(ctx, 1,
		metric.WithAttributes(attribute.String("action", action)),
	)
}

// RecordGatewayError records a gateway error counter increment. gateway names
// the backend (e.g. "openai", "deepgram", "elevenlabs"); stage is the pipeline
// stage ("transcription", "intent", "speech", "catalog").
func (m *Metrics) RecordGatewayError(ctx context.Context, gateway, stage string) {
	m.GatewayErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("gateway", gateway),
			attribute.String("stage", stage),
		),
	)
}

// RecordWakeTrigger records a wake phrase detection.
func (m *Metrics) RecordWakeTrigger(ctx context.Context) {
	m.WakeTriggers.Add(ctx, 1)
}
