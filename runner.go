package parcheck

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/stepantubanov/parcheck/observe"
)

// DefaultWaitTimeout bounds how long the controller waits for every task to
// reach an operation or finish, and for a released operation to end, before
// failing the scenario.
const DefaultWaitTimeout = 5 * time.Second

type runnerConfig struct {
	strategy    Strategy
	iterations  int
	seed        uint64
	seedSet     bool
	waitTimeout time.Duration
	logger      *slog.Logger
	observer    observe.Handler
	beforeStep  StepHook
	afterStep   StepHook
	onPanic     PanicHook
}

// Option configures a Runner.
type Option func(*runnerConfig)

// WithStrategy sets the schedule strategy. Default is [Random] with a fresh
// seed per iteration.
func WithStrategy(s Strategy) Option {
	return func(c *runnerConfig) {
		c.strategy = s
	}
}

// WithIterations sets how many schedules a Run call explores. Only the
// Random strategy varies between iterations; Replay always runs once.
func WithIterations(n int) Option {
	return func(c *runnerConfig) {
		c.iterations = n
	}
}

// WithSeed pins the base seed used when no strategy is set explicitly.
func WithSeed(seed uint64) Option {
	return func(c *runnerConfig) {
		c.seed = seed
		c.seedSet = true
	}
}

// WithWaitTimeout sets the wall-clock budget for each scheduling step.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *runnerConfig) {
		c.waitTimeout = d
	}
}

// WithLogger sets the logger for the runner, the controller and
// [LoggerFromContext] inside the body. Default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runnerConfig) {
		c.logger = logger
	}
}

// WithObserver attaches a structured sink for scenario lifecycle events.
// Absence of an observer does not affect scheduling.
func WithObserver(h observe.Handler) Option {
	return func(c *runnerConfig) {
		c.observer = h
	}
}

// WithBeforeStep runs the hook right before each operation is released.
func WithBeforeStep(h StepHook) Option {
	return func(c *runnerConfig) {
		c.beforeStep = h
	}
}

// WithAfterStep runs the hook right after each released operation ended.
func WithAfterStep(h StepHook) Option {
	return func(c *runnerConfig) {
		c.afterStep = h
	}
}

// WithOnPanic sets the hook receiving the partial schedule when the body
// panics.
func WithOnPanic(h PanicHook) Option {
	return func(c *runnerConfig) {
		c.onPanic = h
	}
}

// Runner executes scenarios. Construct with [NewRunner]; a Runner is
// immutable and may be reused across Run calls.
type Runner struct {
	cfg runnerConfig
}

// NewRunner creates a Runner. Defaults: one iteration, Random strategy with
// a fresh seed, 5s wait budget, discarded logs. The environment overrides
// code so a failing schedule can be replayed without editing the test:
// PARCHECK_REPLAY (a recorded trace), PARCHECK_MAX_ITERATIONS and
// PARCHECK_SEED. Malformed environment values panic.
func NewRunner(opts ...Option) *Runner {
	cfg := runnerConfig{
		iterations:  1,
		waitTimeout: DefaultWaitTimeout,
		logger:      defaultLogger,
		beforeStep:  defaultStepHook,
		afterStep:   defaultStepHook,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	applyEnv(&cfg)
	return &Runner{cfg: cfg}
}

func applyEnv(cfg *runnerConfig) {
	if v := os.Getenv("PARCHECK_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			panic("parcheck: can't parse PARCHECK_MAX_ITERATIONS: " + v)
		}
		cfg.iterations = n
	}
	if v := os.Getenv("PARCHECK_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			panic("parcheck: can't parse PARCHECK_SEED: " + v)
		}
		cfg.seed = seed
		cfg.seedSet = true
		if _, ok := cfg.strategy.(*Random); ok {
			// A code-set Random carries its own seed; drop it so the
			// environment seed is the one used.
			cfg.strategy = nil
		}
	}
	if v := os.Getenv("PARCHECK_REPLAY"); v != "" {
		trace, err := ParseTrace(v)
		if err != nil {
			panic("parcheck: can't parse PARCHECK_REPLAY: " + err.Error())
		}
		cfg.strategy = NewReplay(trace)
		cfg.iterations = 1
	}
}

type bodyResult struct {
	err      error
	panicked bool
	panicVal any
	stack    []byte
}

// Run executes the scenario body against the declared multiset of task
// names, once per iteration. The body must start every declared task (via
// [Task]) and must not return before they finished. Any failure carries the
// partial schedule, formatted for PARCHECK_REPLAY.
func (r *Runner) Run(ctx context.Context, tasks []string, body func(context.Context) error) error {
	iterations := r.cfg.iterations
	if _, ok := r.cfg.strategy.(*Replay); ok {
		iterations = 1
	}

	scenarioID := uuid.NewString()
	baseSeed := r.cfg.seed
	if !r.cfg.seedSet {
		baseSeed = rand.Uint64()
	}
	logger := r.cfg.logger.With("scenario_id", scenarioID)
	logger.Info("scenario starting", "tasks", tasks, "iterations", iterations, "seed", baseSeed)

	obs := r.cfg.observer
	obsCtx := ctx
	if obs != nil {
		obsCtx = obs.StartScenario(ctx, observe.ScenarioInfo{
			ScenarioID: scenarioID,
			Tasks:      tasks,
			Strategy:   r.strategyLabel(baseSeed),
		})
	}

	var runErr error
	for i := 0; i < iterations; i++ {
		strat := r.iterationStrategy(i, baseSeed)

		itCtx := obsCtx
		if obs != nil {
			itCtx = obs.StartIteration(obsCtx, i)
		}
		trace, err := r.runOnce(ctx, itCtx, logger, strat, tasks, body)
		if obs != nil {
			obs.EndIteration(itCtx, trace.String(), err)
		}
		if err != nil {
			runErr = goerr.Wrap(err, "scenario failed",
				goerr.Value("iteration", i),
				goerr.Value("strategy", strategyName(strat)),
				goerr.Value("trace", trace.String()))
			break
		}
	}

	if obs != nil {
		obs.EndScenario(obsCtx, runErr)
		if err := obs.Finish(obsCtx); err != nil {
			logger.Warn("observer finish failed", "error", err)
		}
	}
	return runErr
}

func (r *Runner) strategyLabel(baseSeed uint64) string {
	if r.cfg.strategy != nil {
		return strategyName(r.cfg.strategy)
	}
	return fmt.Sprintf("random(seed=%d)", baseSeed)
}

// iterationStrategy derives the strategy for one iteration. Random gets a
// fresh seed per iteration so repeated runs explore distinct schedules.
func (r *Runner) iterationStrategy(i int, baseSeed uint64) Strategy {
	switch s := r.cfg.strategy.(type) {
	case nil:
		return NewRandom(baseSeed + uint64(i))
	case *Random:
		// Fresh generator per iteration: the configured strategy only
		// carries the seed, so a reused Runner stays deterministic.
		return NewRandom(s.Seed() + uint64(i))
	default:
		return r.cfg.strategy
	}
}

func (r *Runner) runOnce(ctx, obsCtx context.Context, logger *slog.Logger, strat Strategy, tasks []string, body func(context.Context) error) (*Trace, error) {
	c := newController(tasks, strat, &r.cfg)
	c.logger = logger
	c.obs = r.cfg.observer
	c.obsCtx = obsCtx

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	bodyCtx := ctxWithLogger(withController(runCtx, c), logger)

	bodyCh := make(chan bodyResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				bodyCh <- bodyResult{panicked: true, panicVal: p, stack: debug.Stack()}
			}
		}()
		bodyCh <- bodyResult{err: body(bodyCtx)}
	}()

	ctrlCh := make(chan error, 1)
	go func() {
		ctrlCh <- c.run(runCtx)
	}()

	var res bodyResult
	var ctrlErr error
	select {
	case res = <-bodyCh:
		close(c.bodyDoneSignal)
		ctrlErr = <-ctrlCh
	case ctrlErr = <-ctrlCh:
		if ctrlErr == nil {
			res = <-bodyCh
		} else {
			// The scenario failed; ask the body to stop and give it a
			// moment. A body ignoring its context is left behind.
			cancel()
			select {
			case res = <-bodyCh:
			case <-time.After(r.cfg.waitTimeout):
			}
		}
	}

	trace := c.trace.clone()
	switch {
	case res.panicked:
		if r.cfg.onPanic != nil {
			r.cfg.onPanic(trace)
		} else {
			logger.Error("schedule caused a panic; replay it with PARCHECK_REPLAY",
				"panic", fmt.Sprint(res.panicVal), "trace", trace.String())
		}
		return trace, goerr.Wrap(ErrUserPanic, "scenario body panicked",
			goerr.Value("panic", fmt.Sprint(res.panicVal)),
			goerr.Value("stack", string(res.stack)))
	case ctrlErr != nil:
		return trace, ctrlErr
	case res.err != nil:
		return trace, goerr.Wrap(res.err, "scenario body failed")
	}
	return trace, nil
}
