package queue

import "go.uber.org/atomic"

// RecvCounter is the pool-wide approximation of queued work described in
// the design: the sum of every worker's receive-deque length, used to
// size steal-round budgets without scanning every queue. Shared by all
// workers in a pool via a single pointer.
type RecvCounter struct {
	n atomic.Int64
}

// NewRecvCounter returns a zeroed counter.
func NewRecvCounter() *RecvCounter {
	return &RecvCounter{}
}

// Add adjusts the counter by delta, which may be negative.
func (c *RecvCounter) Add(delta int64) {
	c.n.Add(delta)
}

// Load returns the current approximate total.
func (c *RecvCounter) Load() int64 {
	return c.n.Load()
}
