package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/stepantubanov/parcheck/observe"
)

// Event represents a scenario event type that can be selectively enabled.
type Event int

const (
	// Scenario enables logging of scenario start/end.
	Scenario Event = iota
	// Iteration enables logging of each explored schedule.
	Iteration
	// TaskLifecycle enables logging of task entry and completion.
	TaskLifecycle
	// Operation enables logging of each released operation.
	Operation

	eventCount // sentinel for iteration
)

type config struct {
	logger *slog.Logger
	events map[Event]bool
}

// Option configures the logger handler.
type Option func(*config)

// WithLogger sets a custom slog.Logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithEvents enables only the specified event types.
// When not specified, all events are enabled.
func WithEvents(events ...Event) Option {
	return func(c *config) {
		c.events = make(map[Event]bool, len(events))
		for _, e := range events {
			c.events[e] = true
		}
	}
}

// handler implements observe.Handler by logging events via slog.
type handler struct {
	cfg config
}

// New creates an observe.Handler that logs scenario events via slog.
// By default all events are enabled; use WithEvents to narrow the set.
func New(opts ...Option) observe.Handler {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.events == nil {
		cfg.events = make(map[Event]bool, eventCount)
		for i := Event(0); i < eventCount; i++ {
			cfg.events[i] = true
		}
	}

	return &handler{cfg: cfg}
}

func (h *handler) logger() *slog.Logger {
	if h.cfg.logger != nil {
		return h.cfg.logger
	}
	return slog.Default()
}

func (h *handler) enabled(e Event) bool {
	return h.cfg.events[e]
}

// context key for storing span start time
type startTimeKey struct{}

func withStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func startTimeFrom(ctx context.Context) time.Time {
	t, _ := ctx.Value(startTimeKey{}).(time.Time)
	return t
}

func (h *handler) StartScenario(ctx context.Context, info observe.ScenarioInfo) context.Context {
	if h.enabled(Scenario) {
		h.logger().InfoContext(ctx, "scenario started",
			slog.String("scenario_id", info.ScenarioID),
			slog.Any("tasks", info.Tasks),
			slog.String("strategy", info.Strategy),
		)
	}
	return withStartTime(ctx, time.Now())
}

func (h *handler) EndScenario(ctx context.Context, err error) {
	if !h.enabled(Scenario) {
		return
	}

	attrs := []any{
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger().InfoContext(ctx, "scenario ended", attrs...)
}

func (h *handler) StartIteration(ctx context.Context, iteration int) context.Context {
	ctx = withStartTime(ctx, time.Now())
	if h.enabled(Iteration) {
		h.logger().InfoContext(ctx, "iteration started", slog.Int("iteration", iteration))
	}
	return ctx
}

func (h *handler) EndIteration(ctx context.Context, schedule string, err error) {
	if !h.enabled(Iteration) {
		return
	}

	attrs := []any{
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
		slog.String("schedule", schedule),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger().InfoContext(ctx, "iteration ended", attrs...)
}

func (h *handler) TaskEntered(ctx context.Context, task observe.TaskSnapshot) {
	if h.enabled(TaskLifecycle) {
		h.logger().InfoContext(ctx, "task entered",
			slog.Int("task_id", task.ID), slog.String("task", task.Name))
	}
}

func (h *handler) TaskFinished(ctx context.Context, task observe.TaskSnapshot) {
	if h.enabled(TaskLifecycle) {
		h.logger().InfoContext(ctx, "task finished",
			slog.Int("task_id", task.ID), slog.String("task", task.Name))
	}
}

func (h *handler) StartOperation(ctx context.Context, release observe.Release) context.Context {
	return withStartTime(ctx, time.Now())
}

func (h *handler) EndOperation(ctx context.Context, release observe.Release, err error) {
	if !h.enabled(Operation) {
		return
	}

	attrs := []any{
		slog.Int("step", release.Step),
		slog.Int("task_id", release.TaskID),
		slog.String("task", release.TaskName),
		slog.String("operation", release.Operation),
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger().InfoContext(ctx, "operation", attrs...)
}

func (h *handler) Finish(ctx context.Context) error {
	return nil
}
