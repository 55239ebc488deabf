package observe

import (
	"context"
	"errors"
)

// multiHandler fans out scenario events to multiple Handler implementations.
// Each handler receives its own isolated context so that two Recorders (or
// any combination of handlers) never clobber each other's context keys.
type multiHandler struct {
	handlers []Handler
}

// Multi creates a Handler that forwards all events to the given handlers.
func Multi(handlers ...Handler) Handler {
	return &multiHandler{handlers: handlers}
}

type multiCtxKey struct{}

func (m *multiHandler) getContexts(ctx context.Context) []context.Context {
	if v, ok := ctx.Value(multiCtxKey{}).([]context.Context); ok {
		return v
	}
	ctxs := make([]context.Context, len(m.handlers))
	for i := range ctxs {
		ctxs[i] = ctx
	}
	return ctxs
}

func (m *multiHandler) wrapContexts(base context.Context, handlerCtxs []context.Context) context.Context {
	return context.WithValue(base, multiCtxKey{}, handlerCtxs)
}

func (m *multiHandler) StartScenario(ctx context.Context, info ScenarioInfo) context.Context {
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = h.StartScenario(ctx, info)
	}
	return m.wrapContexts(ctx, handlerCtxs)
}

func (m *multiHandler) EndScenario(ctx context.Context, err error) {
	for i, h := range m.handlers {
		h.EndScenario(m.getContexts(ctx)[i], err)
	}
}

func (m *multiHandler) StartIteration(ctx context.Context, iteration int) context.Context {
	parentCtxs := m.getContexts(ctx)
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = h.StartIteration(parentCtxs[i], iteration)
	}
	return m.wrapContexts(ctx, handlerCtxs)
}

func (m *multiHandler) EndIteration(ctx context.Context, schedule string, err error) {
	for i, h := range m.handlers {
		h.EndIteration(m.getContexts(ctx)[i], schedule, err)
	}
}

func (m *multiHandler) TaskEntered(ctx context.Context, task TaskSnapshot) {
	for i, h := range m.handlers {
		h.TaskEntered(m.getContexts(ctx)[i], task)
	}
}

func (m *multiHandler) TaskFinished(ctx context.Context, task TaskSnapshot) {
	for i, h := range m.handlers {
		h.TaskFinished(m.getContexts(ctx)[i], task)
	}
}

func (m *multiHandler) StartOperation(ctx context.Context, release Release) context.Context {
	parentCtxs := m.getContexts(ctx)
	handlerCtxs := make([]context.Context, len(m.handlers))
	for i, h := range m.handlers {
		handlerCtxs[i] = h.StartOperation(parentCtxs[i], release)
	}
	return m.wrapContexts(ctx, handlerCtxs)
}

func (m *multiHandler) EndOperation(ctx context.Context, release Release, err error) {
	for i, h := range m.handlers {
		h.EndOperation(m.getContexts(ctx)[i], release, err)
	}
}

func (m *multiHandler) Finish(ctx context.Context) error {
	var errs []error
	for i, h := range m.handlers {
		if err := h.Finish(m.getContexts(ctx)[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
