// Package obstrace provides the Tracer abstraction the Gateway and
// Pipeline Core use to wrap their top-level operations in a span, grounded
// on original_source/src/aicp/observability/tracing.py's @traced decorator
// but expressed as an injected dependency (spec.md §9 explicitly warns
// against reaching into module globals from the core engines).
package obstrace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Span is the minimal span handle callers need: End it when the traced
// operation finishes, optionally recording an error first.
type Span interface {
	End()
	RecordError(err error)
	SetAttribute(key string, value interface{})
}

// Tracer starts spans for named operations. The no-op implementation
// (Noop) is the default so tracing is opt-in.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// ---------------------------------------------------------------------------
// No-op tracer
// ---------------------------------------------------------------------------

type noopTracer struct{}

// Noop returns a Tracer whose spans do nothing, used whenever no exporter
// has been configured.
func Noop() Tracer { return noopTracer{} }

func (noopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End()                                {}
func (noopSpan) RecordError(error)                   {}
func (noopSpan) SetAttribute(string, interface{})    {}

// ---------------------------------------------------------------------------
// OpenTelemetry-backed tracer
// ---------------------------------------------------------------------------

type otelTracer struct {
	tracer trace.Tracer
}

// Setup configures a process-wide TracerProvider with the given
// SpanExporter (a console exporter or an OTLP exporter, per SPEC_FULL.md
// §6.4) and returns a Tracer bound to it. Call once at process start;
// the Gateway and Pipeline hold the returned Tracer by injection rather
// than reaching into otel's global TracerProvider.
func Setup(exporter sdktrace.SpanExporter, serviceName, serviceVersion string) (Tracer, func(context.Context) error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return &otelTracer{tracer: tp.Tracer("aicp")}, tp.Shutdown
}

func (t *otelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s otelSpan) End() { s.span.End() }

func (s otelSpan) RecordError(err error) {
	if err != nil {
		s.span.RecordError(err)
	}
}

func (s otelSpan) SetAttribute(key string, value interface{}) {
	s.span.SetAttributes(toAttribute(key, value))
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
