package parcheck

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

type taskState int

const (
	stateAwaitingStart taskState = iota
	stateIdle
	stateAtOperation
	stateFinished
)

// taskRecord tracks one declared task through the scenario. Records are
// owned by the controller goroutine.
type taskRecord struct {
	id    TaskID
	name  string
	state taskState

	// valid while state == stateAtOperation
	op      string
	locks   []Lock
	blocked []Lock
	reply   chan reply
}

func (r *taskRecord) describe() string {
	switch r.state {
	case stateAwaitingStart:
		return fmt.Sprintf("task %q: awaiting-start", r.name)
	case stateIdle:
		return fmt.Sprintf("task %q: idle", r.name)
	case stateAtOperation:
		if len(r.blocked) > 0 {
			return fmt.Sprintf("task %q: at-operation %q (blocked by %v)", r.name, r.op, r.blocked)
		}
		return fmt.Sprintf("task %q: at-operation %q", r.name, r.op)
	default:
		return fmt.Sprintf("task %q: finished", r.name)
	}
}

// taskRegistry is a flat arena of records keyed by TaskID. Ids are assigned
// in declaration order; an arriving task name binds the first record of that
// name still awaiting start.
type taskRegistry struct {
	records  []*taskRecord
	awaiting int
}

func newTaskRegistry(names []string) *taskRegistry {
	reg := &taskRegistry{
		records:  make([]*taskRecord, 0, len(names)),
		awaiting: len(names),
	}
	for i, name := range names {
		reg.records = append(reg.records, &taskRecord{id: TaskID(i), name: name})
	}
	return reg
}

// bind transitions the first awaiting record with the given name to idle.
func (reg *taskRegistry) bind(name string) (*taskRecord, error) {
	for _, rec := range reg.records {
		if rec.state == stateAwaitingStart && rec.name == name {
			rec.state = stateIdle
			reg.awaiting--
			return rec, nil
		}
	}
	return nil, goerr.Wrap(ErrUnexpectedTask, "task is not declared for this scenario",
		goerr.Value("task", name))
}

func (reg *taskRegistry) record(id TaskID) (*taskRecord, error) {
	if int(id) < 0 || int(id) >= len(reg.records) {
		return nil, goerr.Wrap(ErrProtocolViolation, "unknown task id",
			goerr.Value("task_id", int(id)))
	}
	return reg.records[id], nil
}

// beginOperation parks an idle task at the named operation.
func (reg *taskRegistry) beginOperation(rec *taskRecord, op string, locks []Lock, permit chan reply) error {
	if rec.state != stateIdle {
		return goerr.Wrap(ErrProtocolViolation, "operation began while task was not idle",
			goerr.Value("task", rec.name),
			goerr.Value("operation", op),
			goerr.Value("state", rec.describe()))
	}
	rec.state = stateAtOperation
	rec.op = op
	rec.locks = locks
	rec.blocked = nil
	rec.reply = permit
	return nil
}

// endOperation returns a task to idle after its released operation finished.
func (reg *taskRegistry) endOperation(rec *taskRecord) error {
	if rec.state != stateAtOperation {
		return goerr.Wrap(ErrProtocolViolation, "operation ended while task was not at an operation",
			goerr.Value("task", rec.name),
			goerr.Value("state", rec.describe()))
	}
	rec.state = stateIdle
	rec.op = ""
	rec.locks = nil
	rec.blocked = nil
	rec.reply = nil
	return nil
}

// finish marks an idle task finished. Finished is terminal.
func (reg *taskRegistry) finish(rec *taskRecord) error {
	if rec.state != stateIdle {
		return goerr.Wrap(ErrProtocolViolation, "task exited while not idle",
			goerr.Value("task", rec.name),
			goerr.Value("state", rec.describe()))
	}
	rec.state = stateFinished
	return nil
}

// expectedEmpty reports whether every declared task has entered.
func (reg *taskRegistry) expectedEmpty() bool {
	return reg.awaiting == 0
}

// allFinished reports whether every declared task entered and finished.
func (reg *taskRegistry) allFinished() bool {
	for _, rec := range reg.records {
		if rec.state != stateFinished {
			return false
		}
	}
	return true
}

// quiescent reports whether every declared task is parked at an operation or
// finished. This is the controller's precondition for releasing.
func (reg *taskRegistry) quiescent() bool {
	if reg.awaiting > 0 {
		return false
	}
	for _, rec := range reg.records {
		if rec.state != stateAtOperation && rec.state != stateFinished {
			return false
		}
	}
	return true
}

// parked returns the records currently at an operation, in TaskID order.
func (reg *taskRegistry) parked() []*taskRecord {
	var out []*taskRecord
	for _, rec := range reg.records {
		if rec.state == stateAtOperation {
			out = append(out, rec)
		}
	}
	return out
}

// dump renders every record's state, for timeout and violation reports.
func (reg *taskRegistry) dump() []string {
	out := make([]string, 0, len(reg.records))
	for _, rec := range reg.records {
		out = append(out, rec.describe())
	}
	return out
}
