package observe_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/stepantubanov/parcheck/observe"
)

func TestMultiFansOutToAllHandlers(t *testing.T) {
	rec1 := observe.NewRecorder()
	rec2 := observe.NewRecorder()
	m := observe.Multi(rec1, rec2)

	ctx := m.StartScenario(context.Background(), observe.ScenarioInfo{ScenarioID: "s"})
	itCtx := m.StartIteration(ctx, 0)
	opCtx := m.StartOperation(itCtx, observe.Release{Step: 0, TaskName: "a", Operation: "op"})
	m.EndOperation(opCtx, observe.Release{}, nil)
	m.EndIteration(itCtx, "0:a/op", nil)
	m.EndScenario(ctx, nil)
	gt.NoError(t, m.Finish(ctx))

	// Both recorders collected the full tree despite sharing the context
	// chain; each handler's context state is isolated.
	for _, rec := range []*observe.Recorder{rec1, rec2} {
		sc := rec.Scenario()
		gt.NotNil(t, sc)
		gt.Equal(t, 1, len(sc.Iterations))
		gt.Equal(t, "0:a/op", sc.Iterations[0].Schedule)
		gt.Equal(t, 1, len(sc.Iterations[0].Operations))
	}
}

func TestMultiEmpty(t *testing.T) {
	m := observe.Multi()
	ctx := m.StartScenario(context.Background(), observe.ScenarioInfo{})
	m.EndScenario(ctx, nil)
	gt.NoError(t, m.Finish(ctx))
}
