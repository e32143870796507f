// Package tracing wires an OpenTelemetry tracer provider for the service and
// exposes a small helper for starting spans.
package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/gigmatch/pkg/logger"
)

const instrumentationName = "github.com/okian/gigmatch"

// Option configures Init.
type Option func(*options)

type options struct {
	sampleRatio float64
	processors  []sdktrace.SpanProcessor
	log         logger.Logger
}

// WithSampleRatio sets the fraction of root spans that are sampled.
func WithSampleRatio(r float64) Option {
	return func(o *options) {
		if r >= 0 && r <= 1 {
			o.sampleRatio = r
		}
	}
}

// WithSpanProcessor registers an additional span processor.
func WithSpanProcessor(p sdktrace.SpanProcessor) Option {
	return func(o *options) {
		if p != nil {
			o.processors = append(o.processors, p)
		}
	}
}

// WithLogger logs finished spans at debug level.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// Init installs a global tracer provider and returns its shutdown function.
func Init(opts ...Option) func(context.Context) error {
	o := &options{sampleRatio: 1}
	for _, opt := range opts {
		opt(o)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.sampleRatio))),
	}
	if o.log != nil {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(&logProcessor{log: o.log}))
	}
	for _, p := range o.processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(p))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// Start opens a span on the global tracer.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// logProcessor writes finished spans to the structured logger.
type logProcessor struct {
	log logger.Logger
}

func (p *logProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	fields := []logger.Field{
		logger.String("span", s.Name()),
		logger.String("trace_id", s.SpanContext().TraceID().String()),
		logger.Float64("duration_ms", float64(s.EndTime().Sub(s.StartTime()))/float64(time.Millisecond)),
	}
	for _, kv := range s.Attributes() {
		fields = append(fields, logger.Any(string(kv.Key), kv.Value.Emit()))
	}
	p.log.Debug(context.Background(), "span finished", fields...)
}

func (p *logProcessor) Shutdown(context.Context) error   { return nil }
func (p *logProcessor) ForceFlush(context.Context) error { return nil }
