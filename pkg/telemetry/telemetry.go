// Package telemetry records OpenTelemetry spans and metrics for loads and
// installs. Nothing is exported unless the host process installs providers.
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

// ScopeName is the instrumentation scope for tracers and meters.
const ScopeName = "github.com/grovetools/zzz"

// Outcome labels for install metrics.
const (
	OutcomeInstalled = "installed"
	OutcomeFailed    = "failed"
)

// Telemetry holds the tracer and instruments used by the engine.
type Telemetry struct {
	tracer   trace.Tracer
	installs metric.Int64Counter
	duration metric.Float64Histogram
	loads    metric.Int64Counter
}

// New creates instruments from the given providers.
func New(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	meter := mp.Meter(ScopeName)

	installs, err := meter.Int64Counter("zzz.install.packages",
		metric.WithDescription("Number of package installs by outcome"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("zzz.install.duration",
		metric.WithDescription("Duration of a package install in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	loads, err := meter.Int64Counter("zzz.load.runs",
		metric.WithDescription("Number of load passes that resolved and installed a closure"),
	)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		tracer:   tp.Tracer(ScopeName),
		installs: installs,
		duration: duration,
		loads:    loads,
	}, nil
}

// Default uses the global providers.
func Default() *Telemetry {
	t, err := New(otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		otel.Handle(err)
		return nil
	}
	return t
}

// StartLoad opens the span covering one load pass.
func (t *Telemetry) StartLoad(ctx context.Context, project, runID string, ns string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "zzz.load", trace.WithAttributes(
		attribute.String("project.name", project),
		attribute.String("load.run_id", runID),
		attribute.String("namespace", ns),
	))
}

// EndLoad closes a load span.
func (t *Telemetry) EndLoad(ctx context.Context, span trace.Span, installed, failed int, err error) {
	if t == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("load.installed", installed),
		attribute.Int("load.failed", failed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		t.loads.Add(ctx, 1)
	}
	span.End()
}

// StartInstall opens the span covering one package install.
func (t *Telemetry) StartInstall(ctx context.Context, tool, method string) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "zzz.install", trace.WithAttributes(
		attribute.String("tool.name", tool),
		attribute.String("tool.method", method),
	))
}

// EndInstall closes an install span and records its outcome.
func (t *Telemetry) EndInstall(ctx context.Context, span trace.Span, method string, elapsed time.Duration, err error, kind string) {
	if t == nil {
		return
	}
	outcome := OutcomeInstalled
	if err != nil {
		outcome = OutcomeFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("install.error_kind", kind))
	}
	attrs := metric.WithAttributes(
		attribute.String("tool.method", method),
		attribute.String("outcome", outcome),
	)
	t.installs.Add(ctx, 1, attrs)
	t.duration.Record(ctx, elapsed.Seconds(), attrs)
	span.End()
}
