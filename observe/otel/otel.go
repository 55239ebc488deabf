// Package otel provides an OpenTelemetry handler for scenario events.
//
// It bridges scenario lifecycle events to OpenTelemetry spans, allowing
// integration with any OTel-compatible backend (Jaeger, Zipkin, OTLP, etc.).
//
// Basic usage with the global TracerProvider:
//
//	runner := parcheck.NewRunner(parcheck.WithObserver(otel.New()))
//
// With an explicit TracerProvider:
//
//	runner := parcheck.NewRunner(parcheck.WithObserver(
//	    otel.New(otel.WithTracerProvider(tp)),
//	))
package otel

import (
	"context"
	"fmt"

	otelAPI "go.opentelemetry.io/otel"
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/stepantubanov/parcheck/observe"
)

const (
	tracerName = "github.com/stepantubanov/parcheck"
)

// Option is a functional option for configuring the OTel handler.
type Option func(*handler)

// WithTracerProvider sets an explicit TracerProvider.
// If not set, the global TracerProvider is used.
func WithTracerProvider(tp otelTrace.TracerProvider) Option {
	return func(h *handler) {
		h.tracerProvider = tp
	}
}

// handler implements observe.Handler by bridging events to OpenTelemetry spans.
type handler struct {
	tracerProvider otelTrace.TracerProvider
	tracer         otelTrace.Tracer
}

// New creates a new OTel handler.
// If no TracerProvider is specified via options, the global one is used.
func New(opts ...Option) observe.Handler {
	h := &handler{}
	for _, opt := range opts {
		opt(h)
	}

	if h.tracerProvider == nil {
		h.tracerProvider = otelAPI.GetTracerProvider()
	}
	h.tracer = h.tracerProvider.Tracer(tracerName)

	return h
}

func (h *handler) StartScenario(ctx context.Context, info observe.ScenarioInfo) context.Context {
	ctx, _ = h.tracer.Start(ctx, "scenario",
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	span := otelTrace.SpanFromContext(ctx)
	span.SetAttributes(
		scenarioIDAttr(info.ScenarioID),
		scenarioTasksAttr(info.Tasks),
		strategyAttr(info.Strategy),
	)
	return ctx
}

func (h *handler) EndScenario(ctx context.Context, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

func (h *handler) StartIteration(ctx context.Context, iteration int) context.Context {
	ctx, _ = h.tracer.Start(ctx, fmt.Sprintf("iteration:%d", iteration),
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	span := otelTrace.SpanFromContext(ctx)
	span.SetAttributes(iterationAttr(iteration))
	return ctx
}

func (h *handler) EndIteration(ctx context.Context, schedule string, err error) {
	span := otelTrace.SpanFromContext(ctx)
	span.SetAttributes(scheduleAttr(schedule))
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

func (h *handler) TaskEntered(ctx context.Context, task observe.TaskSnapshot) {
	span := otelTrace.SpanFromContext(ctx)
	span.AddEvent("task_entered", otelTrace.WithAttributes(
		taskIDAttr(task.ID), taskNameAttr(task.Name),
	))
}

func (h *handler) TaskFinished(ctx context.Context, task observe.TaskSnapshot) {
	span := otelTrace.SpanFromContext(ctx)
	span.AddEvent("task_finished", otelTrace.WithAttributes(
		taskIDAttr(task.ID), taskNameAttr(task.Name),
	))
}

func (h *handler) StartOperation(ctx context.Context, release observe.Release) context.Context {
	ctx, _ = h.tracer.Start(ctx, fmt.Sprintf("operation:%s", release.Operation),
		otelTrace.WithSpanKind(otelTrace.SpanKindInternal),
	)
	span := otelTrace.SpanFromContext(ctx)
	span.SetAttributes(
		stepAttr(release.Step),
		taskIDAttr(release.TaskID),
		taskNameAttr(release.TaskName),
		operationAttr(release.Operation),
	)
	return ctx
}

func (h *handler) EndOperation(ctx context.Context, release observe.Release, err error) {
	span := otelTrace.SpanFromContext(ctx)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

func (h *handler) Finish(_ context.Context) error {
	// OTel spans are exported by the TracerProvider's SpanProcessor.
	// No additional finalization is needed here.
	return nil
}
