//go:build parcheck_off

package parcheck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/stepantubanov/parcheck"
)

// With the parcheck_off tag the instrumentation surface must be an identity
// wrapper, even inside a running scenario context.

func TestDisabledTaskIsIdentity(t *testing.T) {
	ran := false
	err := parcheck.Task(context.Background(), "t", func(ctx context.Context) error {
		ran = true
		return parcheck.Operation(ctx, "op", func(context.Context) error { return nil })
	})
	gt.NoError(t, err)
	gt.True(t, ran)
}

func TestDisabledOperationPropagatesError(t *testing.T) {
	want := errors.New("from body")
	err := parcheck.OperationWithLocks(context.Background(), "op",
		[]parcheck.Lock{parcheck.AcquireExclusive("s")},
		func(context.Context) error { return want })
	gt.True(t, errors.Is(err, want))
}
