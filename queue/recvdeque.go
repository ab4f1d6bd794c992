package queue

import "sync"

// RecvDeque is the MPMC fallback queue described in the design: fed when
// a send buffer refuses a push, or directly by remote wakers that prefer
// the slowest, always-accepting path. Workers drain it with TryRecv;
// under a whole-deque steal, Take hands a stealer the entire backing
// slice in one step.
type RecvDeque[T any] struct {
	mu  sync.Mutex
	buf []T
}

// NewRecvDeque returns an empty receive deque.
func NewRecvDeque[T any]() *RecvDeque[T] {
	return &RecvDeque[T]{}
}

// TryRecv pops the oldest task, decrementing counter on success. Returns
// ok=false if the deque is currently empty.
func (d *RecvDeque[T]) TryRecv(counter *RecvCounter) (task T, ok bool) {
	d.mu.Lock()
	if len(d.buf) == 0 {
		d.mu.Unlock()
		return task, false
	}
	task = d.buf[0]
	d.buf[0] = *new(T)
	d.buf = d.buf[1:]
	d.mu.Unlock()
	counter.Add(-1)
	return task, true
}

// Append pushes task to the tail, incrementing counter.
func (d *RecvDeque[T]) Append(task T, counter *RecvCounter) {
	d.mu.Lock()
	d.buf = append(d.buf, task)
	d.mu.Unlock()
	counter.Add(1)
}

// Take atomically hands the whole backing sequence to a stealer, leaving
// this deque empty, and decrements counter by the number of tasks handed
// over. Returns ok=false if the deque was already empty.
func (d *RecvDeque[T]) Take(counter *RecvCounter) ([]T, bool) {
	d.mu.Lock()
	if len(d.buf) == 0 {
		d.mu.Unlock()
		return nil, false
	}
	taken := d.buf
	d.buf = nil
	d.mu.Unlock()
	counter.Add(-int64(len(taken)))
	return taken, true
}

// IsEmptyRecv reports whether the deque currently holds no tasks.
func (d *RecvDeque[T]) IsEmptyRecv() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buf) == 0
}

// Len returns the current number of queued tasks.
func (d *RecvDeque[T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buf)
}
