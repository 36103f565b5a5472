package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// noop satisfies Logger, Metrics, Tracer, and Span simultaneously: every
// method is a discard, so one zero-size type stands in for all four
// collaborators instead of a separate struct per interface.
type noop struct{}

// NewNoopLogger constructs a Logger that discards all log messages. Use this
// for testing or when logging is not required.
func NewNoopLogger() Logger { return noop{} }

// NewNoopMetrics constructs a Metrics recorder that discards all metrics. Use
// this for testing or when metrics are not required.
func NewNoopMetrics() Metrics { return noop{} }

// NewNoopTracer constructs a Tracer that creates no-op spans. Use this for
// testing or when tracing is not required.
func NewNoopTracer() Tracer { return noop{} }

func (noop) Debug(context.Context, string, ...any) {}
func (noop) Info(context.Context, string, ...any)  {}
func (noop) Warn(context.Context, string, ...any)  {}
func (noop) Error(context.Context, string, ...any) {}

func (noop) IncCounter(string, float64, ...string)        {}
func (noop) RecordTimer(string, time.Duration, ...string) {}
func (noop) RecordGauge(string, float64, ...string)       {}

// Start returns ctx unmodified along with a discard Span: there is nowhere to
// attach span state without a real tracer backing it.
func (noop) Start(ctx context.Context, _ string, _ ...trace.SpanStartOption) (context.Context, Span) {
	return ctx, noop{}
}

func (noop) Span(context.Context) Span { return noop{} }

func (noop) End(...trace.SpanEndOption)              {}
func (noop) AddEvent(string, ...any)                 {}
func (noop) SetStatus(codes.Code, string)            {}
func (noop) RecordError(error, ...trace.EventOption) {}
