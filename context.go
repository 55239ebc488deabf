package parcheck

import (
	"context"
	"log/slog"
)

type ctxControllerKey struct{}
type ctxTaskKey struct{}
type ctxLoggerKey struct{}

var defaultLogger = slog.New(slog.DiscardHandler)

// withController installs the scenario's controller into the context. The
// slot is scoped to one Run call; concurrent scenarios never observe each
// other's controller.
func withController(ctx context.Context, c *controller) context.Context {
	return context.WithValue(ctx, ctxControllerKey{}, c)
}

func controllerFromContext(ctx context.Context) *controller {
	c, _ := ctx.Value(ctxControllerKey{}).(*controller)
	return c
}

func withTask(ctx context.Context, h *taskHandle) context.Context {
	return context.WithValue(ctx, ctxTaskKey{}, h)
}

func taskFromContext(ctx context.Context) *taskHandle {
	h, _ := ctx.Value(ctxTaskKey{}).(*taskHandle)
	return h
}

func ctxWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// LoggerFromContext returns the logger the runner installed for the current
// scenario, or a discarding logger outside of one.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return defaultLogger
}
