package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for pipeline spans.
const TracerName = "founder-bi-agent/orchestrator"

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, map[string]interface{}) {}
func (nopLogger) Warn(string, map[string]interface{}) {}

// Tracing wraps the SDK tracer provider so it can be flushed on shutdown.
type Tracing struct {
	provider *sdktrace.TracerProvider
}

func initTracing(opts Options, logger Logger) *Tracing {
	if opts.OTLPEndpoint == "" {
		logger.Info("tracing disabled (observability.otlp_endpoint not set)", nil)
		return &Tracing{}
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(opts.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		logger.Warn("failed to create OTLP exporter, tracing disabled", map[string]interface{}{"error": err.Error()})
		return &Tracing{}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", opts.ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)
	logger.Info("tracer initialized", map[string]interface{}{"endpoint": opts.OTLPEndpoint})

	return &Tracing{provider: tp}
}

func (t *Tracing) shutdown(ctx context.Context) {
	if t == nil || t.provider == nil {
		return
	}
	_ = t.provider.Shutdown(ctx)
}

// Tracer returns the pipeline tracer from the global provider, a no-op until tracing is initialized.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
