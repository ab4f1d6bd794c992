package queue

// Dual is one worker's pair of queues plus the pool-wide recv counter and
// park signal it shares with the rest of the pool. T is the task handle
// type the owning package stores — this package never looks inside it.
type Dual[T any] struct {
	// ID is this queue's packed (runtime_id<<8)|(worker_index+1) handle,
	// the same value a task's home-queue reference compares against in
	// the waker decision table.
	ID uint16

	Send    *SendBuffer[T]
	Recv    *RecvDeque[T]
	Counter *RecvCounter
	Waker   *Park
}

// NewDual builds a queue for worker index idx (zero-based) within a pool
// whose runtime id is rtID, sharing counter with every other queue in the
// same pool.
func NewDual[T any](rtID uint16, idx int, counter *RecvCounter, threshold int) *Dual[T] {
	return &Dual[T]{
		ID:      (rtID << 8) | uint16(idx+1),
		Send:    NewSendBuffer[T](threshold),
		Recv:    NewRecvDeque[T](),
		Counter: counter,
		Waker:   NewPark(),
	}
}

// TryRecv is the worker loop's primary dequeue: drain the local send
// buffer before falling back to the shared receive deque, so the common
// case never contends with a remote waker or a stealer on the deque's
// lock.
func (d *Dual[T]) TryRecv() (task T, ok bool) {
	if task, ok = d.Send.TryPopFront(); ok {
		return task, true
	}
	return d.Recv.TryRecv(d.Counter)
}

// Len approximates the total queued work in this queue (send buffer plus
// receive deque), matching the design's "not precise" len().
func (d *Dual[T]) Len() int {
	return d.Send.Len() + d.Recv.Len()
}

// TrySendNotify pushes task onto the send buffer and, on success, notifies
// the owner — the "try_send to origin's send buffer with notify"
// waker-table action. Notify is a non-blocking channel send with no lock
// behind it, so unlike the source's mutex-guarded condvar pairing there is
// no cost to pay for notifying a destination that is already awake.
func (d *Dual[T]) TrySendNotify(task T) (refused T, accepted bool) {
	refused, accepted = d.Send.TrySend(task)
	if accepted {
		d.Waker.Notify()
	}
	return refused, accepted
}

// EscalateNotify unconditionally appends task to the shared receive deque
// and notifies, the escalation path used once TrySendNotify has refused a
// send buffer over its threshold. It targets the receive deque rather than
// forcing the send buffer past its soft cap, the same overflow target the
// same-worker wake path falls back to.
func (d *Dual[T]) EscalateNotify(task T) {
	d.Recv.Append(task, d.Counter)
	d.Waker.Notify()
}
