package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/dictation/logger"
)

// InitMeter installs an OTLP/HTTP meter provider as the global provider.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config, serviceName, serviceVersion string) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(serviceName, serviceVersion)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Debug("meter initialized", logger.Fields(
		logger.FieldService, serviceName,
		logger.FieldURL, cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Metrics holds the pipeline's instruments. A nil *Metrics records nothing.
type Metrics struct {
	transcriptions        metric.Int64Counter
	chunks                metric.Int64Counter
	transcriptionDuration metric.Float64Histogram
	cleanupFailures       metric.Int64Counter
	jobs                  metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.transcriptions, err = meter.Int64Counter("dictation.transcriptions",
		metric.WithDescription("Transcription requests by provider and outcome")); err != nil {
		return nil, fmt.Errorf("creating dictation.transcriptions counter: %w", err)
	}
	if m.chunks, err = meter.Int64Counter("dictation.chunks",
		metric.WithDescription("Upload chunks sent to the transcription endpoint")); err != nil {
		return nil, fmt.Errorf("creating dictation.chunks counter: %w", err)
	}
	if m.transcriptionDuration, err = meter.Float64Histogram("dictation.transcription.duration",
		metric.WithDescription("Duration of transcription requests"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating dictation.transcription.duration histogram: %w", err)
	}
	if m.cleanupFailures, err = meter.Int64Counter("dictation.cleanup.failures",
		metric.WithDescription("Cleanup calls that fell back to the raw transcript")); err != nil {
		return nil, fmt.Errorf("creating dictation.cleanup.failures counter: %w", err)
	}
	if m.jobs, err = meter.Int64Counter("dictation.jobs",
		metric.WithDescription("Finished jobs by terminal state")); err != nil {
		return nil, fmt.Errorf("creating dictation.jobs counter: %w", err)
	}
	return &m, nil
}

// DefaultMetrics creates instruments on the global meter provider.
func DefaultMetrics() *Metrics {
	m, err := NewMetrics(otel.Meter(instrumentationName))
	if err != nil {
		logger.Warn("metrics disabled", logger.ErrorFields("create instruments", err))
		return nil
	}
	return m
}

// RecordTranscription records one transcription call and the chunks it sent.
func (m *Metrics) RecordTranscription(ctx context.Context, provider, status string, chunks int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	)
	m.transcriptions.Add(ctx, 1, attrs)
	m.chunks.Add(ctx, int64(chunks), metric.WithAttributes(attribute.String("provider", provider)))
	m.transcriptionDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordCleanupFailure counts a best-effort cleanup that failed.
func (m *Metrics) RecordCleanupFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.cleanupFailures.Add(ctx, 1)
}

// RecordJob counts a job reaching a terminal state.
func (m *Metrics) RecordJob(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.jobs.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}
