package asyncrt

import "github.com/go-foundations/asyncrt/internal/workerid"

// Waker re-enqueues the task it was built for. A fresh Waker is built
// every time a task is polled, bound to that one task, so Wake is always
// safe to call more than once (the extra calls just re-enqueue a task that
// is already queued or running, which the worker loop tolerates).
type Waker struct {
	wake func()
}

// Wake re-enqueues the task this waker belongs to, choosing the cheapest
// correct path for the calling goroutine's relationship to the task's
// home worker.
func (w *Waker) Wake() {
	w.wake()
}

// newWaker builds the waker installed in a Task's Context for one poll
// cycle. The closure captures t so Wake needs no argument and cannot be
// pointed at the wrong task.
func newWaker[O any](t *Task[O]) *Waker {
	return &Waker{wake: func() { wakeTask(t) }}
}

// wakeTask implements the wake decision table: same worker, different
// worker, or no worker at all, each with its own cheapest still-correct
// re-enqueue path.
func wakeTask[O any](t *Task[O]) {
	home := t.home
	current, bound := workerid.Current()

	switch {
	case !bound:
		// The caller is not a runtime worker goroutine (e.g. a timer
		// callback or external I/O completion running on its own
		// goroutine). There is no "am I already active" relationship to
		// exploit, so push straight to the shared receive deque and
		// notify unconditionally.
		home.Recv.Append(t, home.Counter)
		home.Waker.Notify()

	case current == home.ID:
		// The task's own worker is waking itself (a self-referential
		// suspend resolving inline). It is not parked right now by
		// definition, so skip the notify: try the uncontended send
		// buffer first, falling back to the shared receive deque.
		if refused, accepted := home.Send.TrySend(t); !accepted {
			home.Recv.Append(refused, home.Counter)
		}

	default:
		// A different worker (or a stealer holding this task after
		// rehoming it elsewhere, waking the original) is resuming the
		// task: try the send buffer with a notify, escalating to the
		// unconditional receive-deque push if the buffer refuses.
		if refused, accepted := home.TrySendNotify(t); !accepted {
			home.EscalateNotify(refused)
		}
	}
}
