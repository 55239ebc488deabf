package parcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/stepantubanov/parcheck/observe"
)

// controller is the scenario's single decision-making state machine. It owns
// the registry, the lock table and the trace, and runs on one goroutine;
// instrumented tasks talk to it only through the rendezvous in rendezvous.go.
type controller struct {
	events chan event
	done   chan struct{}

	// bodyDoneSignal is closed by the runner when the scenario body
	// returned. bodyDone is the controller's receiving copy; it is set to
	// nil after the first observation so a closed channel is not selected
	// again.
	bodyDoneSignal chan struct{}
	bodyDone       chan struct{}

	registry *taskRegistry
	locks    *lockTable
	trace    *Trace
	strategy Strategy

	waitTimeout time.Duration
	logger      *slog.Logger

	beforeStep StepHook
	afterStep  StepHook

	obs    observe.Handler
	obsCtx context.Context

	// released is the task currently executing an operation body, or -1.
	released TaskID
}

func newController(names []string, strategy Strategy, cfg *runnerConfig) *controller {
	bodyDone := make(chan struct{})
	return &controller{
		events:         make(chan event),
		done:           make(chan struct{}),
		bodyDoneSignal: bodyDone,
		bodyDone:       bodyDone,
		registry:       newTaskRegistry(names),
		locks:          newLockTable(),
		trace:          &Trace{},
		strategy:       strategy,
		waitTimeout:    cfg.waitTimeout,
		logger:         cfg.logger,
		beforeStep:     cfg.beforeStep,
		afterStep:      cfg.afterStep,
		released:       -1,
	}
}

// run drives the scenario until every task finished or the scenario failed.
// On return all waiting tasks have been cancelled and the done channel is
// closed, so instrumented sites can never block on a dead controller.
func (c *controller) run(ctx context.Context) error {
	err := c.loop(ctx)
	c.cancelWaiting()
	close(c.done)
	return err
}

func (c *controller) loop(ctx context.Context) error {
	for {
		if c.registry.allFinished() {
			return nil
		}
		if err := c.awaitQuiescence(ctx); err != nil {
			return err
		}
		if c.registry.allFinished() {
			return nil
		}

		candidates := c.candidates()
		if len(candidates) == 0 {
			return goerr.Wrap(ErrDeadlock, "every waiting task is blocked by held locks",
				goerr.Value("tasks", c.registry.dump()))
		}
		step := c.trace.Len()
		id, err := c.strategy.Choose(candidates, step)
		if err != nil {
			return err
		}
		chosen, ok := findCandidate(candidates, id)
		if !ok {
			return goerr.Wrap(ErrProtocolViolation, "strategy chose a task that is not a candidate",
				goerr.Value("task_id", int(id)),
				goerr.Value("step", step))
		}
		if err := c.release(ctx, chosen, step); err != nil {
			return err
		}
	}
}

// awaitQuiescence drains events until every declared task is parked at an
// operation or finished, recomputing lock blockers once the condition holds.
func (c *controller) awaitQuiescence(ctx context.Context) error {
	timer := time.NewTimer(c.waitTimeout)
	defer timer.Stop()

	for !c.registry.quiescent() {
		select {
		case ev := <-c.events:
			if err := c.handleEvent(ev); err != nil {
				return err
			}
		case <-c.bodyDone:
			c.bodyDone = nil
			if err := c.onBodyDone(); err != nil {
				return err
			}
		case <-timer.C:
			return goerr.Wrap(ErrTimeout, "tasks did not reach an operation in time",
				goerr.Value("wait_timeout", c.waitTimeout),
				goerr.Value("tasks", c.registry.dump()))
		case <-ctx.Done():
			return goerr.Wrap(ctx.Err(), "scenario context cancelled")
		}
	}

	for _, rec := range c.registry.parked() {
		rec.blocked = c.locks.blocked(rec.id, rec.locks)
	}
	return nil
}

// candidates returns the parked tasks not blocked by locks, in TaskID order.
func (c *controller) candidates() []Candidate {
	var out []Candidate
	for _, rec := range c.registry.parked() {
		if len(rec.blocked) > 0 {
			continue
		}
		out = append(out, Candidate{ID: rec.id, TaskName: rec.name, Operation: rec.op})
	}
	return out
}

// release grants the chosen task its operation and drains events until the
// operation ends.
func (c *controller) release(ctx context.Context, chosen Candidate, step int) error {
	rec, err := c.registry.record(chosen.ID)
	if err != nil {
		return err
	}
	if err := c.beforeStep(ctx, step, chosen); err != nil {
		return goerr.Wrap(err, "before-step hook failed", goerr.Value("step", step))
	}

	c.trace.append(TraceEntry{TaskID: rec.id, TaskName: rec.name, Operation: rec.op})
	c.logger.Debug("operation released",
		"step", step, "task", rec.name, "task_id", int(rec.id), "operation", rec.op)

	var opCtx context.Context
	rel := c.releaseInfo(chosen, step)
	if c.obs != nil {
		opCtx = c.obs.StartOperation(c.obsCtx, rel)
	}

	locks := rec.locks
	c.locks.acquire(rec.id, locks)
	c.released = rec.id
	pending := rec.reply
	rec.reply = nil
	pending <- reply{}

	drainErr := c.awaitOperationEnd(ctx, rec)
	c.released = -1
	if drainErr == nil {
		c.locks.release(rec.id, locks)
	}
	if c.obs != nil {
		c.obs.EndOperation(opCtx, rel, drainErr)
	}
	if drainErr != nil {
		return drainErr
	}
	if err := c.afterStep(ctx, step, chosen); err != nil {
		return goerr.Wrap(err, "after-step hook failed", goerr.Value("step", step))
	}
	return nil
}

func (c *controller) awaitOperationEnd(ctx context.Context, rec *taskRecord) error {
	timer := time.NewTimer(c.waitTimeout)
	defer timer.Stop()

	for rec.state == stateAtOperation {
		select {
		case ev := <-c.events:
			if err := c.handleEvent(ev); err != nil {
				return err
			}
		case <-c.bodyDone:
			c.bodyDone = nil
			if err := c.onBodyDone(); err != nil {
				return err
			}
		case <-timer.C:
			return goerr.Wrap(ErrTimeout, "operation did not finish in time",
				goerr.Value("wait_timeout", c.waitTimeout),
				goerr.Value("task", rec.name),
				goerr.Value("operation", rec.op),
				goerr.Value("tasks", c.registry.dump()))
		case <-ctx.Done():
			return goerr.Wrap(ctx.Err(), "scenario context cancelled")
		}
	}
	return nil
}

// handleEvent applies one up event to the registry. Every accepted event is
// answered: immediately for entered/end/exit, at release or cancel time for
// a parked operation begin.
func (c *controller) handleEvent(ev event) error {
	switch ev.kind {
	case eventEntered:
		rec, err := c.registry.bind(ev.name)
		if err != nil {
			ev.reply <- reply{err: errCancelled}
			return err
		}
		c.logger.Debug("task entered", "task", rec.name, "task_id", int(rec.id))
		if c.obs != nil {
			c.obs.TaskEntered(c.obsCtx, snapshotRecord(rec))
		}
		ev.reply <- reply{id: rec.id}
		return nil

	case eventOperationBegin:
		rec, err := c.registry.record(ev.id)
		if err != nil {
			ev.reply <- reply{err: err}
			return err
		}
		if rec.state == stateAtOperation {
			verr := goerr.Wrap(ErrProtocolViolation, "operation began inside another operation",
				goerr.Value("task", rec.name),
				goerr.Value("operation", ev.name),
				goerr.Value("outer_operation", rec.op))
			ev.reply <- reply{err: verr}
			return verr
		}
		if err := c.registry.beginOperation(rec, ev.name, ev.locks, ev.reply); err != nil {
			ev.reply <- reply{err: err}
			return err
		}
		return nil

	case eventOperationEnd:
		rec, err := c.registry.record(ev.id)
		if err != nil {
			ev.reply <- reply{err: err}
			return err
		}
		if rec.id != c.released {
			verr := goerr.Wrap(ErrProtocolViolation, "operation ended without being released",
				goerr.Value("task", rec.name),
				goerr.Value("operation", rec.op))
			ev.reply <- reply{err: verr}
			return verr
		}
		if err := c.registry.endOperation(rec); err != nil {
			ev.reply <- reply{err: err}
			return err
		}
		ev.reply <- reply{}
		return nil

	case eventTaskExit:
		rec, err := c.registry.record(ev.id)
		if err != nil {
			ev.reply <- reply{err: err}
			return err
		}
		if held := c.locks.held(rec.id); len(held) > 0 {
			verr := goerr.Wrap(ErrProtocolViolation, "task finished without releasing locks",
				goerr.Value("task", rec.name),
				goerr.Value("scopes", held))
			ev.reply <- reply{err: verr}
			return verr
		}
		if err := c.registry.finish(rec); err != nil {
			ev.reply <- reply{err: err}
			return err
		}
		c.logger.Debug("task finished", "task", rec.name, "task_id", int(rec.id))
		if c.obs != nil {
			c.obs.TaskFinished(c.obsCtx, snapshotRecord(rec))
		}
		ev.reply <- reply{}
		return nil
	}
	return goerr.Wrap(ErrProtocolViolation, "unknown event kind")
}

// onBodyDone runs when the scenario body has returned. Stragglers that
// already sent an event are absorbed; any task that has not finished by now
// is orphaned and the scenario is inconsistent.
func (c *controller) onBodyDone() error {
	for {
		select {
		case ev := <-c.events:
			if err := c.handleEvent(ev); err != nil {
				return err
			}
			continue
		default:
		}
		break
	}
	if c.registry.allFinished() {
		return nil
	}
	return goerr.Wrap(ErrProtocolViolation, "scenario body returned with unfinished tasks",
		goerr.Value("tasks", c.registry.dump()))
}

// cancelWaiting answers every parked task's pending permit with a cancel.
func (c *controller) cancelWaiting() {
	for _, rec := range c.registry.parked() {
		if rec.reply != nil {
			rec.reply <- reply{err: errCancelled}
			rec.reply = nil
		}
	}
}

func (c *controller) releaseInfo(chosen Candidate, step int) observe.Release {
	return observe.Release{
		Step:      step,
		TaskID:    int(chosen.ID),
		TaskName:  chosen.TaskName,
		Operation: chosen.Operation,
		Tasks:     c.snapshotTasks(),
	}
}

func (c *controller) snapshotTasks() []observe.TaskSnapshot {
	out := make([]observe.TaskSnapshot, 0, len(c.registry.records))
	for _, rec := range c.registry.records {
		out = append(out, snapshotRecord(rec))
	}
	return out
}

func snapshotRecord(rec *taskRecord) observe.TaskSnapshot {
	snap := observe.TaskSnapshot{ID: int(rec.id), Name: rec.name}
	switch rec.state {
	case stateAwaitingStart:
		snap.State = observe.TaskAwaitingStart
	case stateIdle:
		snap.State = observe.TaskIdle
	case stateAtOperation:
		snap.State = observe.TaskAtOperation
		snap.Operation = rec.op
	case stateFinished:
		snap.State = observe.TaskFinished
	}
	return snap
}

func findCandidate(candidates []Candidate, id TaskID) (Candidate, bool) {
	for _, c := range candidates {
		if c.ID == id {
			return c, true
		}
	}
	return Candidate{}, false
}
