package asyncrt

import "sync"

// AsyncValue is a one-shot shared slot bound to whatever runtime polls
// it. A producer calls Set exactly once; a consumer polling this value as
// a Computation[T] resumes with it. If Set happens before the first poll,
// the slot is pre-filled and that first poll returns ready without ever
// suspending. Once polled, suspension goes through the polling runtime's
// own Pending/Wakeup operations rather than a waker held directly here.
type AsyncValue[T any] struct {
	mu     sync.Mutex
	value  T
	filled bool
	rt     Runtime[T]
	id     *TaskID
}

// NewAsyncValue returns an empty slot.
func NewAsyncValue[T any]() *AsyncValue[T] {
	return &AsyncValue[T]{}
}

// Set stores value and wakes whoever is waiting, if anyone has polled
// this value already. A second call panics: the slot fills exactly once,
// so a second Set is always a caller bug — there is no sensible way to
// reconcile two "real" results for one value.
func (a *AsyncValue[T]) Set(value T) {
	a.mu.Lock()
	if a.filled {
		a.mu.Unlock()
		panic("asyncrt: AsyncValue.Set called twice")
	}
	a.value = value
	a.filled = true
	rt, id := a.rt, a.id
	a.mu.Unlock()

	if rt != nil && id != nil && id.HasPending() {
		rt.Wakeup(id)
	}
}

// Poll implements Computation[T]: ready immediately if Set already ran,
// otherwise installs this poll's waker via cx.Runtime.Pending and
// suspends until Set fires it.
func (a *AsyncValue[T]) Poll(cx *Context[T]) (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.filled {
		return a.value, true
	}
	a.rt = cx.Runtime
	a.id = cx.ID
	cx.Runtime.Pending(cx.ID, cx.Waker)
	var zero T
	return zero, false
}
