package parcheck

import "errors"

var (
	// ErrUnexpectedTask is returned when a task enters instrumentation whose
	// name is not declared for the scenario, or beyond its declared multiplicity.
	ErrUnexpectedTask = errors.New("unexpected task")

	// ErrProtocolViolation is returned when an instrumentation event arrives in a
	// state that the task lifecycle forbids, e.g. an operation beginning inside
	// another operation of the same task.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrReplayDivergence is returned when a replayed schedule no longer matches
	// the operations the scenario produces.
	ErrReplayDivergence = errors.New("replay divergence")

	// ErrTimeout is returned when the scenario exceeds its wait budget, either
	// before every task reaches an operation or finishes, or before a released
	// operation ends.
	ErrTimeout = errors.New("scenario timed out")

	// ErrUserPanic is returned when a panic reaches the scenario body's
	// goroutine, raised there or propagated to it from one of its tasks. A
	// panic on another goroutine is not recovered by the runner. The error
	// carries the partial schedule for replay.
	ErrUserPanic = errors.New("user code panicked")

	// ErrDeadlock is returned when every waiting task is blocked by lock
	// annotations held by other tasks.
	ErrDeadlock = errors.New("tasks deadlocked on lock annotations")

	// ErrInvalidTrace is returned when a recorded schedule cannot be parsed.
	ErrInvalidTrace = errors.New("invalid trace")
)

// errCancelled is the internal reply meaning the controller has relinquished
// control; the instrumented body continues to run uninstrumented.
var errCancelled = errors.New("scenario cancelled")
