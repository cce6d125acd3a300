package observability

import (
	"context"
	"errors"
	"time"

	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/drkhalidabdullah/islamwiki-sub001"

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestCount      metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	SearchCount       metric.Int64Counter
	SearchDuration    metric.Float64Histogram
	AdapterDuration   metric.Float64Histogram
	AdapterFailures   metric.Int64Counter
	BackgroundFailure metric.Int64Counter
	CacheHitCount     metric.Int64Counter
	CacheMissCount    metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing, metrics export and Go runtime metrics.
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := otelruntime.Start(otelruntime.WithMinimumReadMemStatsInterval(10 * time.Second)); err != nil {
		_ = tracerProvider.Shutdown(ctx)
		_ = meterProvider.Shutdown(ctx)
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(tracerProvider.Shutdown(ctx), meterProvider.Shutdown(ctx))
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics against the global meter provider.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}
	var err error

	if m.RequestCount, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.SearchCount, err = meter.Int64Counter("search.requests",
		metric.WithDescription("Number of executed searches")); err != nil {
		return nil, err
	}
	if m.SearchDuration, err = meter.Float64Histogram("search.duration",
		metric.WithDescription("End-to-end search latency in milliseconds"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.AdapterDuration, err = meter.Float64Histogram("search.adapter.duration",
		metric.WithDescription("Per content type lookup latency in milliseconds"), metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if m.AdapterFailures, err = meter.Int64Counter("search.adapter.failures",
		metric.WithDescription("Content type lookups that failed or timed out")); err != nil {
		return nil, err
	}
	if m.BackgroundFailure, err = meter.Int64Counter("search.background.failures",
		metric.WithDescription("Failed analytics or suggestion counter writes")); err != nil {
		return nil, err
	}
	if m.CacheHitCount, err = meter.Int64Counter("cache.hit.count",
		metric.WithDescription("Number of cache hits")); err != nil {
		return nil, err
	}
	if m.CacheMissCount, err = meter.Int64Counter("cache.miss.count",
		metric.WithDescription("Number of cache misses")); err != nil {
		return nil, err
	}

	return m, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error in the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// RecordRequest records an HTTP request metric
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", statusCode),
	)
	m.RequestCount.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordSearch records one completed search
func (m *Metrics) RecordSearch(ctx context.Context, contentType string, degraded bool, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("search.content_type", contentType),
		attribute.Bool("search.degraded", degraded),
	)
	m.SearchCount.Add(ctx, 1, attrs)
	m.SearchDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordAdapter records one content type lookup
func (m *Metrics) RecordAdapter(ctx context.Context, contentType string, failed bool, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("search.content_type", contentType))
	m.AdapterDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	if failed {
		m.AdapterFailures.Add(ctx, 1, attrs)
	}
}

// RecordBackgroundFailure records a failed fire-and-forget write
func (m *Metrics) RecordBackgroundFailure(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.BackgroundFailure.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordCache records a cache lookup outcome
func (m *Metrics) RecordCache(ctx context.Context, name string, hit bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("cache.name", name))
	if hit {
		m.CacheHitCount.Add(ctx, 1, attrs)
		return
	}
	m.CacheMissCount.Add(ctx, 1, attrs)
}
