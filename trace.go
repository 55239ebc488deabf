package parcheck

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// TaskID identifies one task within a scenario. Records are numbered in
// declaration order, so the same declaration produces the same ids on every
// run, which replay depends on.
type TaskID int

// TraceEntry is one released operation: the task that advanced and the
// operation it executed.
type TraceEntry struct {
	TaskID    TaskID
	TaskName  string
	Operation string
}

// Trace is the total order of released operations produced by one scenario
// iteration. It is sufficient to replay the schedule deterministically via
// [NewReplay].
type Trace struct {
	entries []TraceEntry
}

// Entries returns a copy of the recorded entries in release order.
func (t *Trace) Entries() []TraceEntry {
	out := make([]TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of released operations.
func (t *Trace) Len() int {
	return len(t.entries)
}

func (t *Trace) append(e TraceEntry) {
	t.entries = append(t.entries, e)
}

func (t *Trace) clone() *Trace {
	return &Trace{entries: t.Entries()}
}

// String serializes the trace as newline-delimited
// <task_id>:<task_name>/<operation_name> records. The format is stable: it is
// what PARCHECK_REPLAY and [ParseTrace] consume.
//
// Task names may contain ':' or '/'; operation names must not contain '/'.
func (t *Trace) String() string {
	var b strings.Builder
	for i, e := range t.entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.Itoa(int(e.TaskID)))
		b.WriteByte(':')
		b.WriteString(e.TaskName)
		b.WriteByte('/')
		b.WriteString(e.Operation)
	}
	return b.String()
}

// ParseTrace parses a trace previously produced by [Trace.String].
func ParseTrace(s string) (*Trace, error) {
	t := &Trace{}
	if s == "" {
		return t, nil
	}
	for i, line := range strings.Split(s, "\n") {
		if line == "" {
			continue
		}
		idPart, rest, ok := strings.Cut(line, ":")
		if !ok {
			return nil, goerr.Wrap(ErrInvalidTrace, "record has no task id",
				goerr.Value("line", i+1), goerr.Value("record", line))
		}
		id, err := strconv.Atoi(idPart)
		if err != nil {
			return nil, goerr.Wrap(ErrInvalidTrace, "task id is not a number",
				goerr.Value("line", i+1), goerr.Value("record", line))
		}
		sep := strings.LastIndexByte(rest, '/')
		if sep < 0 {
			return nil, goerr.Wrap(ErrInvalidTrace, "record has no operation name",
				goerr.Value("line", i+1), goerr.Value("record", line))
		}
		t.entries = append(t.entries, TraceEntry{
			TaskID:    TaskID(id),
			TaskName:  rest[:sep],
			Operation: rest[sep+1:],
		})
	}
	return t, nil
}
