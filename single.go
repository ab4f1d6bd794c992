package asyncrt

import (
	"time"

	"github.com/go-foundations/asyncrt/queue"
)

// SingleRuntime drives computations of output type O on exactly one
// goroutine: the one that calls RunOnce. Unlike Pool it needs no send
// buffer or steal protocol — there is one producer path (local Spawn) and
// one consumer (whichever goroutine calls RunOnce), so the dual-queue
// split the multi-thread pool needs for stealing collapses to a single
// MPMC deque.
type SingleRuntime[O any] struct {
	id      uint16
	counter *queue.RecvCounter
	ready   *queue.RecvDeque[*Task[O]]
	timer   *timerDriver
}

// NewSingleRuntime builds a runtime with no tick-driven timer configured;
// WaitTimeout then starts a goroutine that sleeps for the delay and wakes
// the task, without blocking the goroutine that calls RunOnce.
func NewSingleRuntime[O any]() *SingleRuntime[O] {
	return &SingleRuntime[O]{
		id:      allocRuntimeID(),
		counter: queue.NewRecvCounter(),
		ready:   queue.NewRecvDeque[*Task[O]](),
	}
}

// ID returns this runtime's process-wide identity.
func (r *SingleRuntime[O]) ID() uint16 { return r.id }

// Len reports how many tasks are currently queued, not including one
// that RunOnce is actively polling.
func (r *SingleRuntime[O]) Len() int { return r.ready.Len() }

// Alloc reserves a TaskID with no computation attached yet.
func (r *SingleRuntime[O]) Alloc() *TaskID {
	return &TaskID{}
}

// Spawn attaches c to id and enqueues it for the next RunOnce call.
func (r *SingleRuntime[O]) Spawn(id *TaskID, c Computation[O]) error {
	t := &Task[O]{id: id, comp: c}
	r.ready.Append(t, r.counter)
	return nil
}

// Pending installs w as the waker id fires on resumption. Since this
// runtime has only one consumer goroutine, waking always means "append to
// the ready deque" — there is no cross-worker/own-worker distinction to
// make.
func (r *SingleRuntime[O]) Pending(id *TaskID, w *Waker) {
	id.pending(w)
}

// Wakeup fires id's installed waker, resuming whatever task suspended on
// it by calling Pending.
func (r *SingleRuntime[O]) Wakeup(id *TaskID) {
	id.Wakeup()
}

// wakeReady re-enqueues t. It is what the Waker RunOnce builds for each
// poll calls: SingleRuntime tasks carry no home dual queue, so they use
// this instead of newWaker/wakeTask's queue-relative table.
func (r *SingleRuntime[O]) wakeReady(t *Task[O]) {
	r.ready.Append(t, r.counter)
}

// RunOnce dequeues up to budget tasks and polls each exactly once,
// reporting how many were polled. A task that suspends installs a fresh
// waker bound to this runtime before RunOnce moves on to the next one; a
// task that completes is dropped without being re-queued.
func (r *SingleRuntime[O]) RunOnce(budget int) int {
	polled := 0
	for polled < budget {
		t, ok := r.ready.TryRecv(r.counter)
		if !ok {
			break
		}
		polled++

		comp, ok := t.TakeComputation()
		if !ok {
			continue
		}
		cx := &Context[O]{ID: t.id, Waker: &Waker{wake: func() { r.wakeReady(t) }}, Runtime: r}
		if _, done := comp.Poll(cx); done {
			continue
		}
		t.PutComputation(comp)
	}
	return polled
}

// WaitTimeout arranges for id to be woken once delay has elapsed, via
// this runtime's timer goroutine if one is configured, or a dedicated
// goroutine that sleeps for delay otherwise (documented degraded mode: a
// SingleRuntime created with NewSingleRuntime has no tick goroutine of
// its own).
func (r *SingleRuntime[O]) WaitTimeout(id *TaskID, delay time.Duration) {
	fire := func() { r.Wakeup(id) }
	if r.timer != nil {
		r.timer.register(fire, delay)
		return
	}
	go func() {
		time.Sleep(delay)
		fire()
	}()
}
