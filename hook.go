package parcheck

import "context"

type (
	// StepHook runs around every released operation. Returning an error
	// aborts the scenario.
	StepHook func(ctx context.Context, step int, chosen Candidate) error

	// PanicHook receives the partial schedule when the scenario body
	// panicked, before Run returns ErrUserPanic.
	PanicHook func(trace *Trace)
)

func defaultStepHook(ctx context.Context, step int, chosen Candidate) error {
	return nil
}
