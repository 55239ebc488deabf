//go:build parcheck_off

package parcheck

import "context"

// With the parcheck_off build tag the instrumentation surface compiles to
// identity wrappers: no ambient lookup, no rendezvous, zero cost.

func Task(ctx context.Context, name string, fn func(context.Context) error) error {
	return fn(ctx)
}

func Operation(ctx context.Context, name string, fn func(context.Context) error) error {
	return fn(ctx)
}

func OperationWithLocks(ctx context.Context, name string, locks []Lock, fn func(context.Context) error) error {
	return fn(ctx)
}
