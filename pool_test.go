package asyncrt

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/go-foundations/asyncrt/internal/workerid"
)

// oneShot is a Computation that records into a counter and completes on
// its first poll, used to drive a Pool without needing any suspend logic.
type oneShot struct {
	counter *atomic.Int64
}

func (o *oneShot) Poll(cx *Context[int]) (int, bool) {
	o.counter.Add(1)
	return 0, true
}

type PoolTestSuite struct {
	suite.Suite
}

func TestPoolTestSuite(t *testing.T) {
	suite.Run(t, new(PoolTestSuite))
}

func (ts *PoolTestSuite) TestExternalSpawnRoundRobinsAcrossWorkers() {
	pool := New[int]("test", 4, 0, 10*time.Millisecond)

	const perWorker = 10
	for i := 0; i < perWorker*4; i++ {
		id := pool.Alloc()
		ts.NoError(pool.Spawn(id, &oneShot{counter: new(atomic.Int64)}))
	}

	for _, w := range pool.workers {
		ts.Equal(perWorker, w.Len())
	}
}

func (ts *PoolTestSuite) TestStartupPollsEverySpawnedTaskToCompletion() {
	pool := New[int]("test", 4, 0, 5*time.Millisecond)
	var counter atomic.Int64

	const total = 500
	for i := 0; i < total; i++ {
		id := pool.Alloc()
		ts.NoError(pool.Spawn(id, &oneShot{counter: &counter}))
	}

	pool.Startup(true)
	defer pool.Shutdown()

	deadline := time.Now().Add(5 * time.Second)
	for counter.Load() < total && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	ts.EqualValues(total, counter.Load())
}

func (ts *PoolTestSuite) TestStealingDrainsAnOverloadedWorker() {
	pool := New[int]("test", 4, 0, 5*time.Millisecond)
	var counter atomic.Int64

	// Dump everything onto worker 0's receive deque directly, bypassing
	// round-robin, to force the other three idle workers to steal from it.
	// The steal budget is sized purely from the pool-wide receive-deque
	// counter (never the send buffer, see queue.RecvCounter), so the
	// receive deque — not the send buffer — is what makes these stealable.
	const total = 200
	home := pool.workers[0]
	for i := 0; i < total; i++ {
		t := newTask(&TaskID{}, &oneShot{counter: &counter}, home)
		home.Recv.Append(t, home.Counter)
	}

	pool.Startup(true)
	defer pool.Shutdown()

	deadline := time.Now().Add(5 * time.Second)
	for counter.Load() < total && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	ts.EqualValues(total, counter.Load())
}

func (ts *PoolTestSuite) TestRunningPoolIdentifiesItsOwnWorkers() {
	pool := New[int]("test", 2, 0, 5*time.Millisecond)
	var sawLocal atomic.Bool

	id := pool.Alloc()
	ts.NoError(pool.Spawn(id, computationFunc[int](func(cx *Context[int]) (int, bool) {
		if _, ok := pool.localWorkerIndex(); ok {
			sawLocal.Store(true)
		}
		return 0, true
	})))

	pool.Startup(false)
	defer pool.Shutdown()

	deadline := time.Now().Add(2 * time.Second)
	for !sawLocal.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	ts.True(sawLocal.Load())
}

// computationFunc adapts a plain function to Computation[O], used by tests
// that only need a one-off Poll body.
type computationFunc[O any] func(cx *Context[O]) (O, bool)

func (f computationFunc[O]) Poll(cx *Context[O]) (O, bool) { return f(cx) }

// perWorkerCount is a oneShot that also attributes its completion to
// whichever worker goroutine polled it, via internal/workerid.
type perWorkerCount struct {
	total    *atomic.Int64
	perIndex []*atomic.Int64
}

func (p *perWorkerCount) Poll(cx *Context[int]) (int, bool) {
	p.total.Add(1)
	if cur, ok := workerid.Current(); ok {
		idx := int(cur & 0xff) // worker_index+1, used only as a bucket key here
		if idx >= 0 && idx < len(p.perIndex) {
			p.perIndex[idx].Add(1)
		}
	}
	return 0, true
}

// TestScenarioOneMillionTasksNoStealing mirrors the load scenario where a
// pool of 8 workers, stealing disabled, drains 1,000,000 independently
// spawned computations to exact completion with nothing left queued.
func (ts *PoolTestSuite) TestScenarioOneMillionTasksNoStealing() {
	if testing.Short() {
		ts.T().Skip("skipping large load scenario in -short mode")
	}

	pool := New[int]("scenario1", 8, 0, 5*time.Millisecond)
	var counter atomic.Int64

	const total = 1_000_000
	for i := 0; i < total; i++ {
		id := pool.Alloc()
		ts.NoError(pool.Spawn(id, &oneShot{counter: &counter}))
	}

	pool.Startup(false)
	defer pool.Shutdown()

	deadline := time.Now().Add(30 * time.Second)
	for counter.Load() < total && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	ts.EqualValues(total, counter.Load())

	deadline = time.Now().Add(time.Second)
	for pool.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	ts.Equal(0, pool.Len())
}

// TestScenarioEightHundredThousandTasksBalanceAcrossStealingWorkers mirrors
// the load scenario where all 800,000 tasks start queued on one worker and
// stealing spreads them so every worker polls a meaningful share.
func (ts *PoolTestSuite) TestScenarioEightHundredThousandTasksBalanceAcrossStealingWorkers() {
	if testing.Short() {
		ts.T().Skip("skipping large load scenario in -short mode")
	}

	const workers = 8
	const total = 800_000
	const minPerWorker = 50_000

	pool := New[int]("scenario2", workers, 0, 5*time.Millisecond)
	var counter atomic.Int64
	perIndex := make([]*atomic.Int64, workers+1)
	for i := range perIndex {
		perIndex[i] = new(atomic.Int64)
	}

	home := pool.workers[0]
	for i := 0; i < total; i++ {
		t := newTask(&TaskID{}, &perWorkerCount{total: &counter, perIndex: perIndex}, home)
		home.Recv.Append(t, home.Counter)
	}

	pool.Startup(true)
	defer pool.Shutdown()

	deadline := time.Now().Add(30 * time.Second)
	for counter.Load() < total && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	ts.EqualValues(total, counter.Load())

	for idx := 1; idx <= workers; idx++ {
		ts.GreaterOrEqual(perIndex[idx].Load(), int64(minPerWorker))
	}
}
