package parcheck

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
)

func TestRegistryBindDeclarationOrder(t *testing.T) {
	reg := newTaskRegistry([]string{"r", "w", "r"})

	rec, err := reg.bind("r")
	gt.NoError(t, err)
	gt.Equal(t, TaskID(0), rec.id)

	rec, err = reg.bind("r")
	gt.NoError(t, err)
	gt.Equal(t, TaskID(2), rec.id)

	rec, err = reg.bind("w")
	gt.NoError(t, err)
	gt.Equal(t, TaskID(1), rec.id)

	gt.True(t, reg.expectedEmpty())
}

func TestRegistryUnexpectedTask(t *testing.T) {
	reg := newTaskRegistry([]string{"a"})

	_, err := reg.bind("b")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, ErrUnexpectedTask))

	// Beyond declared multiplicity counts as unexpected too.
	_, err = reg.bind("a")
	gt.NoError(t, err)
	_, err = reg.bind("a")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, ErrUnexpectedTask))
}

func TestRegistryLifecycle(t *testing.T) {
	reg := newTaskRegistry([]string{"a"})
	rec, err := reg.bind("a")
	gt.NoError(t, err)

	reply := make(chan reply, 1)
	gt.NoError(t, reg.beginOperation(rec, "op", nil, reply))
	gt.Equal(t, stateAtOperation, rec.state)
	gt.Equal(t, "op", rec.op)

	gt.NoError(t, reg.endOperation(rec))
	gt.Equal(t, stateIdle, rec.state)

	gt.NoError(t, reg.finish(rec))
	gt.Equal(t, stateFinished, rec.state)
	gt.True(t, reg.allFinished())
}

func TestRegistryViolations(t *testing.T) {
	reg := newTaskRegistry([]string{"a"})
	rec, err := reg.bind("a")
	gt.NoError(t, err)

	// End without a begin.
	err = reg.endOperation(rec)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, ErrProtocolViolation))

	// Exit while parked at an operation.
	gt.NoError(t, reg.beginOperation(rec, "op", nil, make(chan reply, 1)))
	err = reg.finish(rec)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, ErrProtocolViolation))
}

func TestRegistryQuiescence(t *testing.T) {
	reg := newTaskRegistry([]string{"a", "b"})
	gt.False(t, reg.quiescent())

	recA, err := reg.bind("a")
	gt.NoError(t, err)
	recB, err := reg.bind("b")
	gt.NoError(t, err)
	gt.False(t, reg.quiescent())

	gt.NoError(t, reg.beginOperation(recA, "op", nil, make(chan reply, 1)))
	gt.False(t, reg.quiescent())

	gt.NoError(t, reg.beginOperation(recB, "op", nil, make(chan reply, 1)))
	gt.True(t, reg.quiescent())

	parked := reg.parked()
	gt.Equal(t, 2, len(parked))
	gt.Equal(t, TaskID(0), parked[0].id)
	gt.Equal(t, TaskID(1), parked[1].id)
}

func TestRegistryDump(t *testing.T) {
	reg := newTaskRegistry([]string{"a", "b"})
	rec, err := reg.bind("a")
	gt.NoError(t, err)
	gt.NoError(t, reg.beginOperation(rec, "op", nil, make(chan reply, 1)))

	dump := reg.dump()
	gt.Equal(t, 2, len(dump))
	gt.Equal(t, `task "a": at-operation "op"`, dump[0])
	gt.Equal(t, `task "b": awaiting-start`, dump[1])
}
