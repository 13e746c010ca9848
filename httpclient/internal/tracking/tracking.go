// Package tracking records spans and metrics for API requests.
package tracking

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/lamassu/apiclient/httpclient"

	// SpanName is the span covering one logical request, retries included.
	SpanName = "apiclient.request"

	MetricAttempts        = "apiclient.attempts"         // Counter, attr outcome
	MetricRetries         = "apiclient.retries"          // Counter
	MetricRequestDuration = "apiclient.request.duration" // Histogram in seconds, attr outcome

	AttrOutcome    = "outcome"
	attrMethod     = "http.request.method"
	attrPath       = "url.path"
	attrAttempt    = "apiclient.attempt"
	attrStatusCode = "http.response.status_code"
	attrDelay      = "apiclient.retry.delay_ms"
)

// Outcome labels shared with the caller.
const (
	OutcomeSuccess      = "success"
	OutcomeConnectivity = "connectivity"
	OutcomeOther        = "other"
	OutcomeMaxRetry     = "max_retry"
)

// Tracker owns the instruments for one client.
type Tracker struct {
	tracer   trace.Tracer
	attempts metric.Int64Counter
	retries  metric.Int64Counter
	duration metric.Float64Histogram
}

// logMetricError logs a metric initialization error to stderr.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize apiclient metric %s: %v\n", metricName, err)
	}
}

// New creates a Tracker. Nil providers fall back to the otel globals.
func New(tp trace.TracerProvider, mp metric.MeterProvider) *Tracker {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	t := &Tracker{tracer: tp.Tracer(instrumentationName)}

	var err error
	t.attempts, err = meter.Int64Counter(
		MetricAttempts,
		metric.WithDescription("Number of request attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	logMetricError(MetricAttempts, err)

	t.retries, err = meter.Int64Counter(
		MetricRetries,
		metric.WithDescription("Number of retries after connectivity failures"),
		metric.WithUnit("{retry}"),
	)
	logMetricError(MetricRetries, err)

	t.duration, err = meter.Float64Histogram(
		MetricRequestDuration,
		metric.WithDescription("Duration of logical requests including retries"),
		metric.WithUnit("s"),
	)
	logMetricError(MetricRequestDuration, err)

	return t
}

// Start opens the request span.
func (t *Tracker) Start(ctx context.Context, method, path string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(attrMethod, method),
			attribute.String(attrPath, path),
		),
	)
}

// RecordAttempt counts one attempt and adds it to the span as an event.
// statusCode is zero when no response was received.
func (t *Tracker) RecordAttempt(ctx context.Context, span trace.Span, attempt int, outcome string, statusCode int) {
	if t.attempts != nil {
		t.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
	}
	attrs := []attribute.KeyValue{
		attribute.Int(attrAttempt, attempt),
		attribute.String(AttrOutcome, outcome),
	}
	if statusCode != 0 {
		attrs = append(attrs, attribute.Int(attrStatusCode, statusCode))
	}
	span.AddEvent("attempt", trace.WithAttributes(attrs...))
}

// RecordRetry counts a retry that is about to wait delay.
func (t *Tracker) RecordRetry(ctx context.Context, span trace.Span, delay time.Duration) {
	if t.retries != nil {
		t.retries.Add(ctx, 1)
	}
	span.AddEvent("retry", trace.WithAttributes(attribute.Int64(attrDelay, delay.Milliseconds())))
}

// Finish records the request duration and ends the span.
func (t *Tracker) Finish(ctx context.Context, span trace.Span, start time.Time, outcome string, err error) {
	if t.duration != nil {
		t.duration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
	}
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
