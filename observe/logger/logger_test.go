package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/stepantubanov/parcheck/observe"
	"github.com/stepantubanov/parcheck/observe/logger"
)

func newBufHandler(opts ...logger.Option) (observe.Handler, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	return logger.New(append([]logger.Option{logger.WithLogger(l)}, opts...)...), &buf
}

func TestLoggerLogsAllEventsByDefault(t *testing.T) {
	h, buf := newBufHandler()

	ctx := h.StartScenario(context.Background(), observe.ScenarioInfo{
		ScenarioID: "s", Tasks: []string{"a"}, Strategy: "random(seed=1)",
	})
	itCtx := h.StartIteration(ctx, 0)
	h.TaskEntered(itCtx, observe.TaskSnapshot{ID: 0, Name: "a"})
	opCtx := h.StartOperation(itCtx, observe.Release{Step: 0, TaskName: "a", Operation: "op"})
	h.EndOperation(opCtx, observe.Release{Step: 0, TaskName: "a", Operation: "op"}, nil)
	h.TaskFinished(itCtx, observe.TaskSnapshot{ID: 0, Name: "a"})
	h.EndIteration(itCtx, "0:a/op", nil)
	h.EndScenario(ctx, nil)
	gt.NoError(t, h.Finish(ctx))

	out := buf.String()
	gt.True(t, strings.Contains(out, "scenario started"))
	gt.True(t, strings.Contains(out, "iteration started"))
	gt.True(t, strings.Contains(out, "task entered"))
	gt.True(t, strings.Contains(out, "operation"))
	gt.True(t, strings.Contains(out, "task finished"))
	gt.True(t, strings.Contains(out, "iteration ended"))
	gt.True(t, strings.Contains(out, "scenario ended"))
}

func TestLoggerEventFilter(t *testing.T) {
	h, buf := newBufHandler(logger.WithEvents(logger.Operation))

	ctx := h.StartScenario(context.Background(), observe.ScenarioInfo{ScenarioID: "s"})
	opCtx := h.StartOperation(ctx, observe.Release{Step: 0, TaskName: "a", Operation: "op"})
	h.EndOperation(opCtx, observe.Release{Step: 0, TaskName: "a", Operation: "op"}, nil)
	h.EndScenario(ctx, nil)

	out := buf.String()
	gt.False(t, strings.Contains(out, "scenario started"))
	gt.False(t, strings.Contains(out, "scenario ended"))
	gt.True(t, strings.Contains(out, "operation"))
	gt.True(t, strings.Contains(out, "task=a"))
}

func TestLoggerReportsErrors(t *testing.T) {
	h, buf := newBufHandler()

	ctx := h.StartScenario(context.Background(), observe.ScenarioInfo{ScenarioID: "s"})
	h.EndScenario(ctx, context.DeadlineExceeded)

	gt.True(t, strings.Contains(buf.String(), "deadline exceeded"))
}
