package observe_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/stepantubanov/parcheck/observe"
)

func TestRecorderCollectsTree(t *testing.T) {
	rec := observe.NewRecorder()
	ctx := context.Background()

	ctx = rec.StartScenario(ctx, observe.ScenarioInfo{
		ScenarioID: "scenario-1",
		Tasks:      []string{"a", "b"},
		Strategy:   "random(seed=1)",
	})

	itCtx := rec.StartIteration(ctx, 0)
	rec.TaskEntered(itCtx, observe.TaskSnapshot{ID: 0, Name: "a", State: observe.TaskIdle})

	opCtx := rec.StartOperation(itCtx, observe.Release{
		Step: 0, TaskID: 0, TaskName: "a", Operation: "op",
		Tasks: []observe.TaskSnapshot{{ID: 0, Name: "a", State: observe.TaskAtOperation, Operation: "op"}},
	})
	rec.EndOperation(opCtx, observe.Release{}, nil)

	rec.TaskFinished(itCtx, observe.TaskSnapshot{ID: 0, Name: "a", State: observe.TaskFinished})
	rec.EndIteration(itCtx, "0:a/op", nil)
	rec.EndScenario(ctx, nil)
	gt.NoError(t, rec.Finish(ctx))

	sc := rec.Scenario()
	gt.NotNil(t, sc)
	gt.Equal(t, "scenario-1", sc.ScenarioID)
	gt.Equal(t, []string{"a", "b"}, sc.Tasks)
	gt.Equal(t, 1, len(sc.Iterations))

	it := sc.Iterations[0]
	gt.Equal(t, "0:a/op", it.Schedule)
	gt.Equal(t, 1, len(it.Operations))
	gt.Equal(t, "op", it.Operations[0].Operation)
	gt.Equal(t, 1, len(it.Entered))
	gt.Equal(t, 1, len(it.Finished))
	gt.False(t, it.Operations[0].EndedAt.IsZero())
}

func TestRecorderRecordsErrors(t *testing.T) {
	rec := observe.NewRecorder()
	ctx := rec.StartScenario(context.Background(), observe.ScenarioInfo{})

	itCtx := rec.StartIteration(ctx, 0)
	rec.EndIteration(itCtx, "", errors.New("iteration failed"))
	rec.EndScenario(ctx, errors.New("scenario failed"))

	sc := rec.Scenario()
	gt.Equal(t, "scenario failed", sc.Error)
	gt.Equal(t, "iteration failed", sc.Iterations[0].Error)
}

func TestRecorderGeneratesScenarioID(t *testing.T) {
	rec := observe.NewRecorder()
	ctx := rec.StartScenario(context.Background(), observe.ScenarioInfo{})
	_ = ctx

	gt.True(t, rec.Scenario().ScenarioID != "")
}

func TestRecorderCustomScenarioID(t *testing.T) {
	rec := observe.NewRecorder(observe.WithScenarioID("custom"))
	rec.StartScenario(context.Background(), observe.ScenarioInfo{ScenarioID: "from-runner"})

	gt.Equal(t, "custom", rec.Scenario().ScenarioID)
}
