package asyncrt

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Pair is one (target runtime, producer) entry for WaitAny and AsyncMap.
type Pair[V any] struct {
	Target  Runtime[Result[V]]
	Compute func() (V, error)
}

// waitAny is its own racy, first-writer-wins completion slot rather than
// an AsyncValue: every losing producer also calls in to report its
// result, and AsyncValue.Set's panic-on-double-call contract exists
// specifically to catch that kind of call as a bug elsewhere — here it is
// expected and must be silently discarded instead.
type waitAny[V any] struct {
	pairs []Pair[V]

	mu      sync.Mutex
	done    bool
	result  Result[V]
	rt      Runtime[Result[V]]
	id      *TaskID
	spawned bool
}

// WaitAny spawns every pair's producer onto its own target runtime and
// resumes with whichever completes first. The remaining producers run to
// completion on their own runtimes regardless; their results are simply
// never read. Spawn order does not influence which one wins.
func WaitAny[V any](pairs []Pair[V]) Computation[Result[V]] {
	return &waitAny[V]{pairs: pairs}
}

func (w *waitAny[V]) Poll(cx *Context[Result[V]]) (Result[V], bool) {
	w.mu.Lock()
	if w.done {
		r := w.result
		w.mu.Unlock()
		return r, true
	}
	w.rt = cx.Runtime
	w.id = cx.ID
	cx.Runtime.Pending(cx.ID, cx.Waker)
	spawn := !w.spawned
	w.spawned = true
	w.mu.Unlock()

	if spawn {
		w.spawnAll()
	}
	var zero Result[V]
	return zero, false
}

// spawnAll dispatches every pair concurrently via an errgroup, which here
// collects only spawn-time errors (a target's Spawn returning an error,
// e.g. pool back-pressure) — never the producers' own completion, since
// that happens later through the ordinary cooperative poll/wake path and
// must never block a worker goroutine on errgroup.Wait. Spawn never
// actually returns a non-nil error in this package (see Pool.Spawn and
// SingleRuntime.Spawn), so this branch is unreachable today; it is kept
// for a Runtime[O] implementation that can fail to accept a task.
func (w *waitAny[V]) spawnAll() {
	var g errgroup.Group
	for _, pair := range w.pairs {
		pair := pair
		g.Go(func() error {
			id := pair.Target.Alloc()
			return pair.Target.Spawn(id, &waitAnyTask[V]{compute: pair.Compute, parent: w})
		})
	}
	if err := g.Wait(); err != nil {
		w.tryComplete(Result[V]{Err: err})
	}
}

func (w *waitAny[V]) tryComplete(r Result[V]) {
	w.mu.Lock()
	if w.done {
		w.mu.Unlock()
		return
	}
	w.done = true
	w.result = r
	rt, id := w.rt, w.id
	w.mu.Unlock()

	if rt != nil && id != nil && id.HasPending() {
		rt.Wakeup(id)
	}
}

type waitAnyTask[V any] struct {
	compute func() (V, error)
	parent  *waitAny[V]
}

func (t *waitAnyTask[V]) Poll(cx *Context[Result[V]]) (Result[V], bool) {
	value, err := t.compute()
	r := Result[V]{Value: value, Err: err}
	t.parent.tryComplete(r)
	return r, true
}
