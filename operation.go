//go:build !parcheck_off

package parcheck

import (
	"context"
	"errors"
)

// Operation marks fn as a named schedulable step of the current task. The
// call suspends until the controller releases it; exactly one operation body
// runs at any instant within a scenario. Outside a scenario, or outside a
// [Task], it runs fn directly.
func Operation(ctx context.Context, name string, fn func(context.Context) error) error {
	return OperationWithLocks(ctx, name, nil, fn)
}

// OperationWithLocks is [Operation] with lock annotations describing the
// lock effects of fn, so the scheduler never releases an operation that
// would block on a lock held by another task.
func OperationWithLocks(ctx context.Context, name string, locks []Lock, fn func(context.Context) error) error {
	h := taskFromContext(ctx)
	if h == nil || h.cancelled {
		return fn(ctx)
	}

	r := h.sendOperationBegin(name, locks)
	if r.err != nil {
		if errors.Is(r.err, errCancelled) {
			h.cancelled = true
			return fn(ctx)
		}
		return r.err
	}

	defer h.sendOperationEnd()
	return fn(ctx)
}
