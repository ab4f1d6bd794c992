package asyncrt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// capture wraps a Computation so a test can observe the value it finally
// resolves to, since a runtime's own poll loop otherwise just drops a
// completed task's result.
type capture[O any] struct {
	inner Computation[O]
	out   *O
	done  *bool
}

func (c *capture[O]) Poll(cx *Context[O]) (O, bool) {
	v, ready := c.inner.Poll(cx)
	if ready {
		*c.out = v
		*c.done = true
	}
	return v, ready
}

type WaitTestSuite struct {
	suite.Suite
}

func TestWaitTestSuite(t *testing.T) {
	suite.Run(t, new(WaitTestSuite))
}

func (ts *WaitTestSuite) TestWaitResumesWithChildResultAcrossRuntimes() {
	target := NewSingleRuntime[Result[int]]()
	caller := NewSingleRuntime[Result[int]]()

	var out Result[int]
	var done bool
	w := &capture[Result[int]]{
		inner: Wait[int](target, func() (int, error) { return 7, nil }),
		out:   &out,
		done:  &done,
	}

	id := caller.Alloc()
	ts.NoError(caller.Spawn(id, w))

	ts.Equal(1, caller.RunOnce(10))
	ts.False(done)
	ts.Equal(0, caller.Len())

	ts.Equal(1, target.RunOnce(10))

	ts.Equal(1, caller.Len())
	ts.Equal(1, caller.RunOnce(10))
	ts.True(done)
	ts.Equal(7, out.Value)
	ts.NoError(out.Err)
}

func (ts *WaitTestSuite) TestWaitPropagatesChildError() {
	target := NewSingleRuntime[Result[int]]()
	caller := NewSingleRuntime[Result[int]]()

	var out Result[int]
	var done bool
	w := &capture[Result[int]]{
		inner: Wait[int](target, func() (int, error) { return 0, errors.New("boom") }),
		out:   &out,
		done:  &done,
	}

	id := caller.Alloc()
	ts.NoError(caller.Spawn(id, w))
	caller.RunOnce(10)
	target.RunOnce(10)
	caller.RunOnce(10)

	ts.True(done)
	ts.Error(out.Err)
}

func (ts *WaitTestSuite) TestNestedWaitAcrossThreeRuntimes() {
	inner := NewSingleRuntime[Result[int]]()
	middle := NewSingleRuntime[Result[int]]()
	caller := NewSingleRuntime[Result[int]]()

	nested := func() (int, error) {
		// This closure itself spawns another Wait onto a third runtime and
		// drives it synchronously to model a nested cross-runtime suspend
		// collapsing to a plain value for the middle hop.
		id := inner.Alloc()
		var out Result[int]
		var done bool
		w := &capture[Result[int]]{
			inner: Wait[int](inner, func() (int, error) { return 5, nil }),
			out:   &out,
			done:  &done,
		}
		_ = inner.Spawn(id, w)
		for !done {
			inner.RunOnce(10)
		}
		return out.Value * 2, out.Err
	}

	var out Result[int]
	var done bool
	w := &capture[Result[int]]{
		inner: Wait[int](middle, nested),
		out:   &out,
		done:  &done,
	}
	id := caller.Alloc()
	ts.NoError(caller.Spawn(id, w))

	caller.RunOnce(10)
	middle.RunOnce(10)
	caller.RunOnce(10)

	ts.True(done)
	ts.Equal(10, out.Value)
}
