package asyncrt

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// AsyncMap is a wait-all builder: Join appends a child producer bound to
// its own target runtime; MapOrdered and Map spawn every joined child and
// resume with a slice of their results, in insertion order or completion
// order respectively.
type AsyncMap[V any] struct {
	pairs []Pair[V]
}

// NewAsyncMap returns an empty wait-all builder.
func NewAsyncMap[V any]() *AsyncMap[V] {
	return &AsyncMap[V]{}
}

// Join appends a child: f runs as its own task on target, and its result
// is included in the slice MapOrdered/Map eventually resumes with.
func (m *AsyncMap[V]) Join(target Runtime[Result[V]], f func() (V, error)) {
	m.pairs = append(m.pairs, Pair[V]{Target: target, Compute: f})
}

// MapOrdered spawns every joined child and resumes with their results in
// Join order, regardless of which finishes first.
func (m *AsyncMap[V]) MapOrdered() Computation[Result[[]Result[V]]] {
	return &mapAll[V]{pairs: append([]Pair[V](nil), m.pairs...), ordered: true}
}

// Map spawns every joined child and resumes with their results in
// completion order — a permutation of MapOrdered's slice, not a distinct
// result set.
func (m *AsyncMap[V]) Map() Computation[Result[[]Result[V]]] {
	return &mapAll[V]{pairs: append([]Pair[V](nil), m.pairs...), ordered: false}
}

type mapAll[V any] struct {
	pairs   []Pair[V]
	ordered bool

	mu        sync.Mutex
	results   []Result[V]
	remaining int
	rt        Runtime[Result[[]Result[V]]]
	id        *TaskID
	spawned   bool
	done      bool
}

func (m *mapAll[V]) Poll(cx *Context[Result[[]Result[V]]]) (Result[[]Result[V]], bool) {
	m.mu.Lock()
	if m.done {
		out := m.results
		m.mu.Unlock()
		return Result[[]Result[V]]{Value: out}, true
	}
	m.rt = cx.Runtime
	m.id = cx.ID
	cx.Runtime.Pending(cx.ID, cx.Waker)
	spawn := !m.spawned
	if spawn {
		m.spawned = true
		m.remaining = len(m.pairs)
		if m.ordered {
			m.results = make([]Result[V], len(m.pairs))
		}
	}
	m.mu.Unlock()

	if spawn {
		m.spawnAll()
	}
	var zero Result[[]Result[V]]
	return zero, false
}

// spawnAll dispatches every child concurrently via an errgroup. As in
// waitAny, the error branch below is unreachable today since Spawn never
// actually returns a non-nil error in this package; it is kept for a
// Runtime[O] implementation that can fail to accept a task.
func (m *mapAll[V]) spawnAll() {
	if len(m.pairs) == 0 {
		m.markDone()
		return
	}
	var g errgroup.Group
	for i, pair := range m.pairs {
		i, pair := i, pair
		g.Go(func() error {
			id := pair.Target.Alloc()
			return pair.Target.Spawn(id, &mapChildTask[V]{index: i, parent: m, compute: pair.Compute})
		})
	}
	if err := g.Wait(); err != nil {
		m.childDone(0, Result[V]{Err: err})
	}
}

func (m *mapAll[V]) childDone(index int, r Result[V]) {
	m.mu.Lock()
	if m.ordered && index < len(m.results) {
		m.results[index] = r
	} else if !m.ordered {
		m.results = append(m.results, r)
	}
	m.remaining--
	done := m.remaining <= 0
	if done {
		m.done = true
	}
	rt, id := m.rt, m.id
	m.mu.Unlock()

	if done && rt != nil && id != nil && id.HasPending() {
		rt.Wakeup(id)
	}
}

func (m *mapAll[V]) markDone() {
	m.mu.Lock()
	m.done = true
	rt, id := m.rt, m.id
	m.mu.Unlock()
	if rt != nil && id != nil && id.HasPending() {
		rt.Wakeup(id)
	}
}

type mapChildTask[V any] struct {
	index   int
	parent  *mapAll[V]
	compute func() (V, error)
}

func (t *mapChildTask[V]) Poll(cx *Context[Result[V]]) (Result[V], bool) {
	value, err := t.compute()
	r := Result[V]{Value: value, Err: err}
	t.parent.childDone(t.index, r)
	return r, true
}
