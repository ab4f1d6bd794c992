package asyncrt

// waitTask is what the target runtime actually polls: running compute
// once and delivering its outcome to the waiting task's shared slot.
type waitTask[V any] struct {
	compute func() (V, error)
	slot    *AsyncValue[Result[V]]
}

func (t *waitTask[V]) Poll(cx *Context[Result[V]]) (Result[V], bool) {
	value, err := t.compute()
	result := Result[V]{Value: value, Err: err}
	t.slot.Set(result)
	return result, true
}

// wait is what the waiting task's own runtime polls: the first poll
// spawns compute onto target and suspends; every poll after that just
// delegates to the shared slot, which becomes ready once the spawned
// child completes.
type wait[V any] struct {
	target  Runtime[Result[V]]
	compute func() (V, error)
	slot    *AsyncValue[Result[V]]
	spawned bool
}

// Wait returns a computation that, once spawned onto a runtime, suspends
// that task, runs compute as its own task on target, and resumes with
// compute's result. Composable across runtime kinds and instances: target
// may be a Pool, a SingleRuntime, or — since compute itself may build and
// spawn another Wait — a chain nested arbitrarily deep across runtimes.
func Wait[V any](target Runtime[Result[V]], compute func() (V, error)) Computation[Result[V]] {
	return &wait[V]{target: target, compute: compute, slot: NewAsyncValue[Result[V]]()}
}

func (w *wait[V]) Poll(cx *Context[Result[V]]) (Result[V], bool) {
	if !w.spawned {
		w.spawned = true
		id := w.target.Alloc()
		if err := w.target.Spawn(id, &waitTask[V]{compute: w.compute, slot: w.slot}); err != nil {
			return Result[V]{Err: err}, true
		}
	}
	return w.slot.Poll(cx)
}
