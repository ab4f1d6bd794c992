package asyncrt

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// countdown is a Computation that suspends count times before returning
// ready, re-waking itself inline every poll — useful for exercising the
// take/install-waker/poll/put-back discipline without any concurrency.
type countdown struct {
	remaining int
}

func (c *countdown) Poll(cx *Context[int]) (int, bool) {
	if c.remaining <= 0 {
		return 0, true
	}
	c.remaining--
	cx.Waker.Wake()
	return 0, false
}

type SingleRuntimeTestSuite struct {
	suite.Suite
}

func TestSingleRuntimeTestSuite(t *testing.T) {
	suite.Run(t, new(SingleRuntimeTestSuite))
}

func (ts *SingleRuntimeTestSuite) TestSpawnAndRunOnceToCompletion() {
	rt := NewSingleRuntime[int]()
	id := rt.Alloc()
	ts.NoError(rt.Spawn(id, &countdown{remaining: 3}))

	polled := rt.RunOnce(10)
	ts.Equal(4, polled) // 3 suspends that re-wake inline + 1 final ready poll
	ts.Equal(0, rt.Len())
}

func (ts *SingleRuntimeTestSuite) TestRunOnceRespectsBudget() {
	rt := NewSingleRuntime[int]()
	for i := 0; i < 5; i++ {
		id := rt.Alloc()
		ts.NoError(rt.Spawn(id, &countdown{remaining: 0}))
	}

	polled := rt.RunOnce(2)
	ts.Equal(2, polled)
	ts.Equal(3, rt.Len())
}

func (ts *SingleRuntimeTestSuite) TestPendingComputationSuspendsUntilExternalWake() {
	rt := NewSingleRuntime[string]()
	id := rt.Alloc()

	av := NewAsyncValue[string]()
	ts.NoError(rt.Spawn(id, av))

	polled := rt.RunOnce(10)
	ts.Equal(1, polled)
	ts.Equal(0, rt.Len()) // suspended task holds no queue slot until woken

	av.Set("done")
	ts.Equal(1, rt.Len())

	polled = rt.RunOnce(10)
	ts.Equal(1, polled)
}
