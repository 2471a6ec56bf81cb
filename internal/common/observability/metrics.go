package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter and tracer providers.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	stageDuration otelmetric.Float64Histogram
	recordCounter otelmetric.Int64Counter

	tracing *Tracing
}

// Options configures New.
type Options struct {
	ServiceName  string
	OTLPEndpoint string // tracing is disabled when empty
}

func New(opts Options, logger Logger) *Observability {
	if logger == nil {
		logger = nopLogger{}
	}
	o := &Observability{tracing: initTracing(opts, logger)}

	exporter, err := prometheus.New()
	if err != nil {
		logger.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(opts.ServiceName)

	stageDuration, _ := meter.Float64Histogram(
		"pipeline.stage.duration",
		otelmetric.WithDescription("Duration of each pipeline stage"),
		otelmetric.WithUnit("ms"),
	)

	recordCounter, _ := meter.Int64Counter(
		"pipeline.records.loaded",
		otelmetric.WithDescription("Canonical records loaded per domain and source kind"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.stageDuration = stageDuration
	o.recordCounter = recordCounter
	return o
}

// RecordStage records how long one pipeline stage took.
func (o *Observability) RecordStage(ctx context.Context, stage string, duration time.Duration, status string) {
	if o == nil || o.stageDuration == nil {
		return
	}
	o.stageDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// RecordRecords counts canonical records loaded for a domain.
func (o *Observability) RecordRecords(ctx context.Context, domain, kind string, count int) {
	if o == nil || o.recordCounter == nil {
		return
	}
	o.recordCounter.Add(ctx, int64(count), otelmetric.WithAttributes(
		attribute.String("domain", domain),
		attribute.String("kind", kind),
	))
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	o.tracing.shutdown(ctx)
}
