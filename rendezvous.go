package parcheck

type eventKind int

const (
	eventEntered eventKind = iota
	eventOperationBegin
	eventOperationEnd
	eventTaskExit
)

// event travels up from an instrumented site to the controller. The reply
// channel has capacity one and receives exactly one reply per event the
// controller accepts, so the controller never blocks answering.
type event struct {
	kind  eventKind
	id    TaskID // sender, except for eventEntered
	name  string // task name for eventEntered, operation name for eventOperationBegin
	locks []Lock
	reply chan reply
}

// reply travels down from the controller. A nil err grants permission. The
// errCancelled sentinel means the controller relinquished control and the
// body continues uninstrumented; any other error is a violation surfaced to
// the instrumentation caller.
type reply struct {
	id  TaskID // assigned id, on the entered reply
	err error
}

// taskHandle is the task-local marker bound into the body's context while a
// controlled task runs. A task is sequential; the handle must not be shared
// across goroutines spawned by the body.
type taskHandle struct {
	id        TaskID
	name      string
	ctrl      *controller
	cancelled bool
}

// send performs one rendezvous: deliver the event, then block until the
// controller replies. The controller's done channel unblocks both stages
// once it has stopped consuming, turning the exchange into a cancel.
func (c *controller) send(ev event) reply {
	select {
	case c.events <- ev:
	case <-c.done:
		return reply{err: errCancelled}
	}
	select {
	case r := <-ev.reply:
		return r
	case <-c.done:
		return reply{err: errCancelled}
	}
}

func (c *controller) sendEntered(name string) reply {
	return c.send(event{kind: eventEntered, name: name, reply: make(chan reply, 1)})
}

func (h *taskHandle) sendOperationBegin(op string, locks []Lock) reply {
	return h.ctrl.send(event{kind: eventOperationBegin, id: h.id, name: op, locks: locks, reply: make(chan reply, 1)})
}

func (h *taskHandle) sendOperationEnd() reply {
	return h.ctrl.send(event{kind: eventOperationEnd, id: h.id, reply: make(chan reply, 1)})
}

func (h *taskHandle) sendTaskExit() reply {
	return h.ctrl.send(event{kind: eventTaskExit, id: h.id, reply: make(chan reply, 1)})
}
