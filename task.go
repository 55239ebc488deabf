//go:build !parcheck_off

package parcheck

import "context"

// Task marks fn as a named task of the ambient scenario. Outside a scenario
// it runs fn directly. Inside one, it registers with the controller, waits
// for permission to start, and reports completion on every exit path,
// panics included.
//
// A task is sequential: operations inside fn must run on fn's goroutine.
func Task(ctx context.Context, name string, fn func(context.Context) error) error {
	c := controllerFromContext(ctx)
	if c == nil {
		return fn(ctx)
	}

	r := c.sendEntered(name)
	if r.err != nil {
		// Controller relinquished control; run uninstrumented.
		return fn(ctx)
	}

	h := &taskHandle{id: r.id, name: name, ctrl: c}
	defer h.sendTaskExit()
	return fn(withTask(ctx, h))
}
