// Package queue implements the per-worker dual-queue described in the
// runtime's design: a send buffer biased toward a single local owner, and
// a receive deque used as overflow and as the surface whole-deque steals
// take from. See Dual for how the two compose.
package queue

import "sync"

// defaultThreshold is the soft capacity a SendBuffer refuses pushes past,
// forcing the caller to escalate to the receive deque. Chosen generously:
// the buffer still grows past it via Send (the unconditional path), it
// only refuses TrySend.
const defaultThreshold = 256

// SendBuffer is the "SPSC-biased" ring described in the design: the owning
// worker is the dominant writer and the only reader, but remote wakers and
// the pool's dispatcher may also write into it, and any other worker may
// steal a batch from its front. All operations share one mutex; the ring
// never tears a batch mid-steal because TryTake and TryPopFront hold the
// same lock a concurrent TrySend/Send would need.
type SendBuffer[T any] struct {
	mu        sync.Mutex
	buf       []T
	threshold int
}

// NewSendBuffer builds a send buffer with the given soft capacity
// threshold. A non-positive threshold falls back to defaultThreshold.
func NewSendBuffer[T any](threshold int) *SendBuffer[T] {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	return &SendBuffer[T]{threshold: threshold}
}

// TrySend appends task to the tail unless the buffer has reached its soft
// threshold, in which case it refuses and hands the task back to the
// caller (which is expected to escalate to the receive deque).
func (s *SendBuffer[T]) TrySend(task T) (refused T, accepted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) >= s.threshold {
		return task, false
	}
	s.buf = append(s.buf, task)
	return refused, true
}

// Send appends task unconditionally, growing the ring past its soft
// threshold if needed. The pool uses it to put a task back into a worker's
// own buffer when another goroutine currently holds that task's
// computation; the refused-send escalation paths append to the receive
// deque instead (see Dual.EscalateNotify).
func (s *SendBuffer[T]) Send(task T) {
	s.mu.Lock()
	s.buf = append(s.buf, task)
	s.mu.Unlock()
}

// TryPopFront is the owner's own fast-path dequeue: pop the oldest task,
// preserving local FIFO order. Not part of the steal protocol — stealers
// use TryTake instead so a single steal round always removes a contiguous
// batch rather than racing the owner one task at a time.
func (s *SendBuffer[T]) TryPopFront() (task T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		return task, false
	}
	task = s.buf[0]
	s.buf[0] = *new(T)
	s.buf = s.buf[1:]
	return task, true
}

// TryTake atomically detaches up to count tasks from the front of the
// buffer for a stealer. Safe against a concurrent owner TrySend/Send/
// TryPopFront since both sides take the same lock.
func (s *SendBuffer[T]) TryTake(count int) ([]T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 || count <= 0 {
		return nil, false
	}
	if count > len(s.buf) {
		count = len(s.buf)
	}
	batch := make([]T, count)
	copy(batch, s.buf[:count])
	s.buf = s.buf[count:]
	return batch, true
}

// Append adds a stolen batch to this buffer's tail. Used by a stealer to
// fold a victim's batch into its own send buffer in one step.
func (s *SendBuffer[T]) Append(batch []T) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	s.buf = append(s.buf, batch...)
	s.mu.Unlock()
}

// TryIsEmpty reports whether the buffer currently holds no tasks. Racy by
// nature (a concurrent push may land immediately after), used only as a
// cheap pre-check before a more expensive steal attempt.
func (s *SendBuffer[T]) TryIsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf) == 0
}

// Len returns the current number of buffered tasks.
func (s *SendBuffer[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}
