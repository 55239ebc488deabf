package observe

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ScenarioRecord is the root of the recorded tree for one Run call.
type ScenarioRecord struct {
	ScenarioID string             `json:"scenario_id"`
	Tasks      []string           `json:"tasks"`
	Strategy   string             `json:"strategy"`
	StartedAt  time.Time          `json:"started_at"`
	EndedAt    time.Time          `json:"ended_at"`
	Iterations []*IterationRecord `json:"iterations"`
	Error      string             `json:"error,omitempty"`
}

// IterationRecord is one explored schedule.
type IterationRecord struct {
	Index      int                `json:"index"`
	StartedAt  time.Time          `json:"started_at"`
	EndedAt    time.Time          `json:"ended_at"`
	Schedule   string             `json:"schedule"`
	Operations []*OperationRecord `json:"operations"`
	Entered    []TaskSnapshot     `json:"entered,omitempty"`
	Finished   []TaskSnapshot     `json:"finished,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// OperationRecord is one released operation with the release-time snapshot.
type OperationRecord struct {
	Release
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Error     string    `json:"error,omitempty"`
}

// RecorderOption is a functional option for configuring a Recorder.
type RecorderOption func(*Recorder)

// WithScenarioID sets a custom scenario id. If not set, the id reported by
// the runner is used, and a UUID v7 is generated when that is empty too.
func WithScenarioID(id string) RecorderOption {
	return func(r *Recorder) {
		r.scenarioID = id
	}
}

// Recorder collects scenario events into an in-memory record tree. It
// implements [Handler]; the collected tree is available via Scenario().
type Recorder struct {
	mu         sync.Mutex
	scenario   *ScenarioRecord
	scenarioID string
}

// NewRecorder creates a Recorder with the given options.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scenario returns the recorded tree, or nil before StartScenario.
func (r *Recorder) Scenario() *ScenarioRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scenario
}

// Iterations returns the recorded iterations in order.
func (r *Recorder) Iterations() []*IterationRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scenario == nil {
		return nil
	}
	return r.scenario.Iterations
}

type iterationKey struct{}
type operationKey struct{}

func (r *Recorder) StartScenario(ctx context.Context, info ScenarioInfo) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.scenarioID
	if id == "" {
		id = info.ScenarioID
	}
	if id == "" {
		if v7, err := uuid.NewV7(); err == nil {
			id = v7.String()
		}
	}
	r.scenario = &ScenarioRecord{
		ScenarioID: id,
		Tasks:      info.Tasks,
		Strategy:   info.Strategy,
		StartedAt:  time.Now(),
	}
	return ctx
}

func (r *Recorder) EndScenario(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scenario == nil {
		return
	}
	r.scenario.EndedAt = time.Now()
	if err != nil {
		r.scenario.Error = err.Error()
	}
}

func (r *Recorder) StartIteration(ctx context.Context, iteration int) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	it := &IterationRecord{Index: iteration, StartedAt: time.Now()}
	if r.scenario != nil {
		r.scenario.Iterations = append(r.scenario.Iterations, it)
	}
	return context.WithValue(ctx, iterationKey{}, it)
}

func (r *Recorder) EndIteration(ctx context.Context, schedule string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, _ := ctx.Value(iterationKey{}).(*IterationRecord)
	if it == nil {
		return
	}
	it.EndedAt = time.Now()
	it.Schedule = schedule
	if err != nil {
		it.Error = err.Error()
	}
}

func (r *Recorder) TaskEntered(ctx context.Context, task TaskSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it, _ := ctx.Value(iterationKey{}).(*IterationRecord); it != nil {
		it.Entered = append(it.Entered, task)
	}
}

func (r *Recorder) TaskFinished(ctx context.Context, task TaskSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it, _ := ctx.Value(iterationKey{}).(*IterationRecord); it != nil {
		it.Finished = append(it.Finished, task)
	}
}

func (r *Recorder) StartOperation(ctx context.Context, release Release) context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	op := &OperationRecord{Release: release, StartedAt: time.Now()}
	if it, _ := ctx.Value(iterationKey{}).(*IterationRecord); it != nil {
		it.Operations = append(it.Operations, op)
	}
	return context.WithValue(ctx, operationKey{}, op)
}

func (r *Recorder) EndOperation(ctx context.Context, release Release, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, _ := ctx.Value(operationKey{}).(*OperationRecord)
	if op == nil {
		return
	}
	op.EndedAt = time.Now()
	if err != nil {
		op.Error = err.Error()
	}
}

func (r *Recorder) Finish(ctx context.Context) error {
	return nil
}
