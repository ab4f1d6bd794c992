package asyncrt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type WaitAnyTestSuite struct {
	suite.Suite
}

func TestWaitAnyTestSuite(t *testing.T) {
	suite.Run(t, new(WaitAnyTestSuite))
}

func (ts *WaitAnyTestSuite) TestFirstCompletedWinsAndLosersDoNotPanic() {
	rtA := NewSingleRuntime[Result[int]]()
	rtB := NewSingleRuntime[Result[int]]()
	caller := NewSingleRuntime[Result[int]]()

	var out Result[int]
	var done bool
	w := &capture[Result[int]]{
		inner: WaitAny[int]([]Pair[int]{
			{Target: rtA, Compute: func() (int, error) { return 1, nil }},
			{Target: rtB, Compute: func() (int, error) { return 2, nil }},
		}),
		out:  &out,
		done: &done,
	}

	id := caller.Alloc()
	ts.NoError(caller.Spawn(id, w))
	ts.Equal(1, caller.RunOnce(10)) // suspends, spawns both producers

	// Run the first producer to completion; it should win.
	ts.Equal(1, rtA.RunOnce(10))
	ts.Equal(1, caller.Len())
	ts.Equal(1, caller.RunOnce(10))
	ts.True(done)
	ts.Equal(1, out.Value)

	// The loser still runs fine, and does not panic anything by also
	// reporting its result after the winner already completed.
	ts.NotPanics(func() { rtB.RunOnce(10) })
}

// TestWaitAnyMixedRuntimeKinds checks a single WaitAny call racing a pair
// whose targets are two different Runtime[O] implementations: one
// SingleRuntime, one multi-worker Pool. The pool is deliberately left
// un-started so its child sits queued and unpolled, making the
// SingleRuntime side's win deterministic rather than a timing race.
func (ts *WaitAnyTestSuite) TestWaitAnyMixedRuntimeKinds() {
	single := NewSingleRuntime[Result[int]]()
	pool := New[Result[int]]("mixed", 2, 0, 5*time.Millisecond)
	handle := pool.Runtime()

	caller := NewSingleRuntime[Result[int]]()

	var out Result[int]
	var done bool
	w := &capture[Result[int]]{
		inner: WaitAny[int]([]Pair[int]{
			{Target: single, Compute: func() (int, error) { return 1, nil }},
			{Target: handle, Compute: func() (int, error) { return 2, nil }},
		}),
		out:  &out,
		done: &done,
	}

	id := caller.Alloc()
	ts.NoError(caller.Spawn(id, w))
	caller.RunOnce(10) // suspends, spawns onto both the single runtime and the pool

	ts.Equal(1, single.RunOnce(10))
	ts.Equal(1, caller.Len())
	ts.Equal(1, caller.RunOnce(10))

	ts.True(done)
	ts.Equal(1, out.Value)
	ts.Equal(1, pool.Len()) // the pool's child is still queued, never started
}
