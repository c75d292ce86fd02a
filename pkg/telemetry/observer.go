// Package telemetry records TMAP upstream calls and MCP tool invocations
// into OpenTelemetry.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope used for the global providers.
const ScopeName = "github.com/yunkee-lee/mcp-tmap"

// Metric names.
const (
	MetricUpstreamRequests = "tmapmcp.upstream.requests"
	MetricUpstreamLatency  = "tmapmcp.upstream.latency"
	MetricToolInvocations  = "tmapmcp.tool.invocations"
	MetricToolLatency      = "tmapmcp.tool.latency"
)

// Observer records spans and metrics. A nil *Observer is valid and records nothing.
type Observer struct {
	tracer trace.Tracer

	requests       metric.Int64Counter
	requestLatency metric.Float64Histogram
	invocations    metric.Int64Counter
	toolLatency    metric.Float64Histogram
}

// NewObserver creates an observer bound to the provided meter and tracer.
func NewObserver(meter metric.Meter, tracer trace.Tracer) (*Observer, error) {
	requests, err := meter.Int64Counter(
		MetricUpstreamRequests,
		metric.WithDescription("Number of requests sent to the TMAP API"),
	)
	if err != nil {
		return nil, err
	}
	requestLatency, err := meter.Float64Histogram(
		MetricUpstreamLatency,
		metric.WithDescription("TMAP API round trip latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	invocations, err := meter.Int64Counter(
		MetricToolInvocations,
		metric.WithDescription("Number of MCP tool invocations"),
	)
	if err != nil {
		return nil, err
	}
	toolLatency, err := meter.Float64Histogram(
		MetricToolLatency,
		metric.WithDescription("MCP tool latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Observer{
		tracer:         tracer,
		requests:       requests,
		requestLatency: requestLatency,
		invocations:    invocations,
		toolLatency:    toolLatency,
	}, nil
}

// NewGlobalObserver creates an observer on the globally registered providers.
func NewGlobalObserver() (*Observer, error) {
	return NewObserver(
		otel.GetMeterProvider().Meter(ScopeName),
		otel.GetTracerProvider().Tracer(ScopeName),
	)
}

// EndFunc finishes an upstream observation. statusCode is zero when no
// response was received; kind names the error class, empty on success.
type EndFunc func(statusCode int, kind string, err error)

// StartUpstream opens a span for one TMAP API request.
func (o *Observer) StartUpstream(ctx context.Context, operation, method string) (context.Context, EndFunc) {
	if o == nil {
		return ctx, func(int, string, error) {}
	}

	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "tmap."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("tmap.operation", operation),
			attribute.String("http.request.method", method),
		),
	)

	return ctx, func(statusCode int, kind string, err error) {
		attrs := []attribute.KeyValue{
			attribute.String("tmap.operation", operation),
			attribute.Int("http.response.status_code", statusCode),
		}
		if kind != "" {
			attrs = append(attrs, attribute.String("error.type", kind))
		}

		options := metric.WithAttributes(attrs...)
		o.requests.Add(ctx, 1, options)
		o.requestLatency.Record(ctx, time.Since(start).Seconds(), options)

		span.SetAttributes(attrs...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, kind)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// ObserveTool records one tool invocation.
func (o *Observer) ObserveTool(ctx context.Context, tool string, success bool, elapsed time.Duration) {
	if o == nil {
		return
	}

	options := metric.WithAttributes(
		attribute.String("tool_name", tool),
		attribute.Bool("success", success),
	)
	o.invocations.Add(ctx, 1, options)
	o.toolLatency.Record(ctx, elapsed.Seconds(), options)
}
