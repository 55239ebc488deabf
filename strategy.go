package parcheck

import (
	"fmt"
	"math/rand/v2"

	"github.com/m-mizutani/goerr/v2"
)

// Candidate is a task waiting at an operation and eligible for release.
type Candidate struct {
	ID        TaskID
	TaskName  string
	Operation string
}

// Strategy decides which waiting task advances at each scheduling point.
// Candidates are passed in ascending TaskID order; step counts released
// operations so far. Implementations are used from a single goroutine.
type Strategy interface {
	Choose(candidates []Candidate, step int) (TaskID, error)
}

// Random explores schedules by picking uniformly among candidates with a
// deterministic seeded generator. The seed plus the scenario fully determines
// the schedule when the code under test is deterministic.
type Random struct {
	seed uint64
	rng  *rand.Rand
}

// NewRandom creates a Random strategy from the given seed.
func NewRandom(seed uint64) *Random {
	return &Random{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, 0)),
	}
}

// Seed returns the seed this strategy was created from.
func (s *Random) Seed() uint64 {
	return s.seed
}

func (s *Random) Choose(candidates []Candidate, _ int) (TaskID, error) {
	return candidates[s.rng.IntN(len(candidates))].ID, nil
}

func (s *Random) String() string {
	return fmt.Sprintf("random(seed=%d)", s.seed)
}

// Replay drives the scenario along a previously recorded trace. Once the
// trace is exhausted it falls back to seeded random picks, so a prefix trace
// still pins down the interesting part of the schedule.
type Replay struct {
	entries  []TraceEntry
	fallback *Random
}

// NewReplay creates a Replay strategy from a recorded trace.
func NewReplay(trace *Trace) *Replay {
	return &Replay{
		entries:  trace.Entries(),
		fallback: NewRandom(0),
	}
}

func (s *Replay) Choose(candidates []Candidate, step int) (TaskID, error) {
	if step >= len(s.entries) {
		return s.fallback.Choose(candidates, step)
	}
	want := s.entries[step]
	for _, c := range candidates {
		if c.ID != want.TaskID {
			continue
		}
		if c.Operation != want.Operation {
			return 0, goerr.Wrap(ErrReplayDivergence, "recorded operation does not match",
				goerr.Value("step", step),
				goerr.Value("task", c.TaskName),
				goerr.Value("expected_operation", want.Operation),
				goerr.Value("actual_operation", c.Operation))
		}
		return c.ID, nil
	}
	return 0, goerr.Wrap(ErrReplayDivergence, "recorded task is not a candidate",
		goerr.Value("step", step),
		goerr.Value("expected_task_id", int(want.TaskID)),
		goerr.Value("expected_operation", want.Operation))
}

func (s *Replay) String() string {
	return fmt.Sprintf("replay(%d steps)", len(s.entries))
}

// strategyName renders a strategy for logs and observers.
func strategyName(s Strategy) string {
	if str, ok := s.(fmt.Stringer); ok {
		return str.String()
	}
	return fmt.Sprintf("%T", s)
}
