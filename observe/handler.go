// Package observe provides pluggable sinks for scenario lifecycle events:
// an in-memory [Recorder], a fan-out [Multi], and (in subpackages) slog and
// OpenTelemetry backends. Attaching a handler never affects scheduling.
package observe

import "context"

// TaskState is a task's lifecycle state as seen by the scheduler.
type TaskState string

const (
	TaskAwaitingStart TaskState = "awaiting-start"
	TaskIdle          TaskState = "idle"
	TaskAtOperation   TaskState = "at-operation"
	TaskFinished      TaskState = "finished"
)

// TaskSnapshot is one task's state at an instant.
type TaskSnapshot struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	State     TaskState `json:"state"`
	Operation string    `json:"operation,omitempty"`
}

// ScenarioInfo describes one Run call.
type ScenarioInfo struct {
	ScenarioID string   `json:"scenario_id"`
	Tasks      []string `json:"tasks"`
	Strategy   string   `json:"strategy"`
}

// Release describes one released operation: the schedule step, the chosen
// task, and a snapshot of every task at the moment of release. At that
// moment every live task is parked at an operation or finished.
type Release struct {
	Step      int            `json:"step"`
	TaskID    int            `json:"task_id"`
	TaskName  string         `json:"task_name"`
	Operation string         `json:"operation"`
	Tasks     []TaskSnapshot `json:"tasks,omitempty"`
}

// Handler is the interface for scenario event backends. Implementations
// receive lifecycle events during a scenario and can record, export, or
// forward them as needed. All events for one scenario arrive from a single
// goroutine at a time.
type Handler interface {
	// StartScenario starts the root scenario span.
	StartScenario(ctx context.Context, info ScenarioInfo) context.Context
	// EndScenario ends the root scenario span.
	EndScenario(ctx context.Context, err error)

	// StartIteration starts one schedule exploration.
	StartIteration(ctx context.Context, iteration int) context.Context
	// EndIteration ends one schedule exploration with the recorded schedule.
	EndIteration(ctx context.Context, schedule string, err error)

	// TaskEntered reports a task binding to the scenario.
	TaskEntered(ctx context.Context, task TaskSnapshot)
	// TaskFinished reports a task finishing.
	TaskFinished(ctx context.Context, task TaskSnapshot)

	// StartOperation reports an operation being released.
	StartOperation(ctx context.Context, release Release) context.Context
	// EndOperation reports the released operation ending.
	EndOperation(ctx context.Context, release Release, err error)

	// Finish completes the scenario and performs any final operations.
	Finish(ctx context.Context) error
}
