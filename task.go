package asyncrt

import (
	"sync"
	"sync/atomic"

	"github.com/go-foundations/asyncrt/queue"
)

// Computation is a unit of asynchronous work: a state machine advanced one
// step at a time by Poll. Poll returns (value, true) once the computation
// has a result, or (zero value, false) if it must suspend. A computation
// that returns false must first have arranged for cx.Waker to be woken
// when it becomes worth polling again — a Poll that returns false without
// ever waking its waker leaves the task parked forever. Most suspend
// primitives in this package do that indirectly, by calling
// cx.Runtime.Pending(cx.ID, cx.Waker) and letting whatever they are
// waiting on fire the wake later through that same runtime's Wakeup; a
// computation that already knows when it will be ready to re-poll (e.g.
// one that re-wakes itself inline) may call cx.Waker.Wake() directly.
type Computation[O any] interface {
	Poll(cx *Context[O]) (O, bool)
}

// Context is handed to every Poll call. Waker is the handle a suspending
// computation registers itself against (a timer, an I/O callback, another
// task's completion) so that it is re-polled once progress is possible. ID
// is the same task's one-shot wake slot, and Runtime is the runtime this
// task is currently being polled on. A suspend primitive installs Waker
// into ID by calling cx.Runtime.Pending(cx.ID, cx.Waker) before returning
// false; whatever event it is waiting on resumes the task later by calling
// that same runtime's Wakeup(id) rather than holding onto Waker directly,
// so the install/fire handoff always goes through the runtime's own
// pending/wakeup operations instead of each primitive inventing its own.
type Context[O any] struct {
	Waker   *Waker
	ID      *TaskID
	Runtime Runtime[O]
}

// TaskID is a task's one-shot wake slot. A nil slot means no wake is
// currently pending; installing a Waker via pending and then firing it via
// Wakeup is a single-use handoff — each suspend/resume cycle installs a
// fresh Waker.
type TaskID struct {
	slot atomic.Pointer[Waker]
}

// pending installs w as the waker to fire on the next Wakeup call,
// replacing whatever was previously installed. Called by a Runtime's own
// Pending method, which every suspend primitive goes through via
// cx.Runtime.Pending as part of returning false from Poll.
func (t *TaskID) pending(w *Waker) {
	t.slot.Store(w)
}

// Wakeup fires the most recently installed waker and clears the slot. It
// panics if no waker is currently installed: a Wakeup with nothing pending
// means either a double wake or a wake that raced ahead of the suspend it
// was meant to resume, both caller bugs.
func (t *TaskID) Wakeup() {
	w := t.slot.Swap(nil)
	if w == nil {
		panic("asyncrt: Wakeup called on a task with no pending waker")
	}
	w.Wake()
}

// HasPending reports whether a waker is currently installed.
func (t *TaskID) HasPending() bool {
	return t.slot.Load() != nil
}

// Task couples one Computation to the dual queue it was spawned on. A
// task's home queue is fixed at construction: a steal round moves the Task
// object into the thief's send buffer, and the thief then allocates a
// brand new Task bound to its own queue and migrates the Computation into
// it (see pool.go's rehoming).
type Task[O any] struct {
	id   *TaskID
	home *queue.Dual[*Task[O]]

	mu   sync.Mutex
	comp Computation[O]
}

func newTask[O any](id *TaskID, comp Computation[O], home *queue.Dual[*Task[O]]) *Task[O] {
	return &Task[O]{id: id, home: home, comp: comp}
}

// ID returns the task's wake slot.
func (t *Task[O]) ID() *TaskID { return t.id }

// Home returns the queue this task was spawned on.
func (t *Task[O]) Home() *queue.Dual[*Task[O]] { return t.home }

// TakeComputation removes and returns the task's computation, leaving the
// slot empty. A worker calls this immediately before polling a task; a
// stealer calls it while rehoming one. ok is false if the slot was already
// empty, meaning some other goroutine is concurrently polling or rehoming
// this same task — the caller must not poll or move it twice.
func (t *Task[O]) TakeComputation() (comp Computation[O], ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	comp, ok = t.comp, t.comp != nil
	t.comp = nil
	return comp, ok
}

// PutComputation reinstalls a computation a Poll call did not finish.
func (t *Task[O]) PutComputation(comp Computation[O]) {
	t.mu.Lock()
	t.comp = comp
	t.mu.Unlock()
}
