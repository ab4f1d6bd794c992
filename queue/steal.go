package queue

// Steal runs one steal round for the worker at selfIdx against the other
// queues in the pool: a budget sized from the pool-wide recv total, a
// mirrored starting index, and a send-buffer-then-receive-deque probe per
// victim that stops at the first non-empty batch.
//
// The walk starts at the mirror of selfIdx ("m - index % limit") and
// steps forward around the ring for at most len(queues) steps, visiting
// each index once. The one visit to selfIdx is skipped without spending
// budget, so when the budget is len(queues)-1 every other queue is probed
// once in the round.
func Steal[T any](queues []*Dual[T], selfIdx int, recvTotal int64) ([]T, bool) {
	limit := len(queues)
	if limit <= 1 {
		return nil, false
	}

	budget := int(recvTotal) / limit
	if budget >= limit {
		budget = limit - 1
	}
	if budget <= 0 {
		return nil, false
	}

	m := limit - 1
	start := m - selfIdx%limit
	attempts := 0
	for step := 0; step < limit && attempts < budget; step++ {
		position := (start + step) % limit
		if position == selfIdx {
			continue
		}
		attempts++

		victim := queues[position]
		if !victim.Send.TryIsEmpty() {
			if batch, ok := victim.Send.TryTake(3); ok && len(batch) > 0 {
				return batch, true
			}
		}
		if !victim.Recv.IsEmptyRecv() {
			if batch, ok := victim.Recv.Take(victim.Counter); ok && len(batch) > 0 {
				return batch, true
			}
		}
	}
	return nil, false
}
