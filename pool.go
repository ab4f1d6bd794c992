package asyncrt

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/go-foundations/asyncrt/internal/metrics"
	"github.com/go-foundations/asyncrt/internal/workerid"
	"github.com/go-foundations/asyncrt/queue"
)

// sendThreshold is the soft capacity a worker's send buffer refuses pushes
// past, pushing the overflow to the shared receive deque instead.
const sendThreshold = 256

// Pool is a fixed-size group of worker goroutines sharing a work-stealing
// dual-queue per worker. It is the multi-threaded counterpart to
// SingleRuntime.
type Pool[O any] struct {
	id          uint16
	name        string
	workers     []*queue.Dual[*Task[O]]
	counter     *queue.RecvCounter
	parkTimeout time.Duration
	stackSize   int // recorded for parity; goroutines take no stack-size hint
	timer       *timerDriver
	logger      Logger
	metrics     *metrics.Pool
	enableSteal bool

	rrCounter uint64
	started   atomic.Bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// Option configures a Pool at construction time.
type Option[O any] func(*Pool[O])

// WithLogger overrides the default no-op logger.
func WithLogger[O any](l Logger) Option[O] {
	return func(p *Pool[O]) { p.logger = l }
}

// WithMetrics registers Prometheus metrics for this pool against reg.
// Without this option a Pool never imports the metrics package's
// registration path at runtime.
func WithMetrics[O any](reg prometheus.Registerer) Option[O] {
	return func(p *Pool[O]) { p.metrics = metrics.New(reg, p.name) }
}

// WithTickTimer configures a per-pool timer goroutine advancing every
// tick, with bucketCount ring buckets. Without this option WaitTimeout
// starts one goroutine per pending timeout that sleeps for the requested
// duration and then wakes the task; the calling worker is not blocked.
func WithTickTimer[O any](tick time.Duration, bucketCount int) Option[O] {
	return func(p *Pool[O]) { p.timer = newTimerDriver(tick, bucketCount) }
}

// New builds a pool of workers goroutines (clamped to at least 1), named
// prefix for logging and metrics, with stackSize recorded for parity with
// runtimes that size worker stacks explicitly (Go goroutines grow their
// stacks on demand; this field is kept only so callers porting a
// stack-size budget from such a runtime have somewhere to put it — see
// DESIGN.md) and parkTimeout bounding how long an idle worker sleeps
// between steal rounds.
func New[O any](prefix string, workers int, stackSize int, parkTimeout time.Duration, opts ...Option[O]) *Pool[O] {
	if workers < 1 {
		workers = 1
	}
	p := &Pool[O]{
		id:          allocRuntimeID(),
		name:        prefix,
		counter:     queue.NewRecvCounter(),
		parkTimeout: parkTimeout,
		stackSize:   stackSize,
		logger:      NopLogger(),
		stopCh:      make(chan struct{}),
	}
	p.workers = make([]*queue.Dual[*Task[O]], workers)
	for i := range p.workers {
		p.workers[i] = queue.NewDual[*Task[O]](p.id, i, p.counter, sendThreshold)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns this pool's process-wide runtime identity.
func (p *Pool[O]) ID() uint16 { return p.id }

// WorkerCount reports the number of worker goroutines this pool runs.
func (p *Pool[O]) WorkerCount() int { return len(p.workers) }

// Len approximates the total queued work across every worker.
func (p *Pool[O]) Len() int {
	total := 0
	for _, w := range p.workers {
		total += w.Len()
	}
	return total
}

// WaitLen reports the pool-wide receive-deque count the steal protocol
// sizes its budget from.
func (p *Pool[O]) WaitLen() int64 { return p.counter.Load() }

// Startup spawns one goroutine per worker queue running the work-stealing
// loop, plus a timer goroutine if one was configured via WithTickTimer.
// enableSteal toggles whether idle workers attempt to steal from others.
// Startup is not safe to call twice.
func (p *Pool[O]) Startup(enableSteal bool) *Handle[O] {
	p.enableSteal = enableSteal
	p.started.Store(true)

	for i := range p.workers {
		idx := i
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.workerLoop(idx)
		}()
	}
	if p.timer != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.timer.run()
		}()
	}
	return &Handle[O]{Pool: p}
}

// Runtime returns a read-only handle usable before Startup, for code that
// only needs to Alloc/Spawn onto this pool from the outside (e.g. a
// caller seeding initial work before the worker goroutines exist — Spawn
// tolerates this, it only ever touches the queues directly, never the
// worker goroutines themselves).
func (p *Pool[O]) Runtime() *Handle[O] {
	return &Handle[O]{Pool: p}
}

// Shutdown signals every worker and the timer goroutine (if any) to
// return, and waits for them to do so. It does not drain or cancel
// queued work; any task still sitting in a queue when Shutdown returns is
// simply never polled.
func (p *Pool[O]) Shutdown() {
	close(p.stopCh)
	for _, w := range p.workers {
		w.Waker.Notify()
	}
	if p.timer != nil {
		p.timer.shutdown()
	}
	p.wg.Wait()
}

// Alloc reserves a TaskID with no computation attached.
func (p *Pool[O]) Alloc() *TaskID {
	return &TaskID{}
}

// Pending installs w as the waker id fires on Wakeup.
func (p *Pool[O]) Pending(id *TaskID, w *Waker) {
	id.pending(w)
}

// Wakeup fires id's installed waker, resuming whatever task suspended on
// it by calling Pending.
func (p *Pool[O]) Wakeup(id *TaskID) {
	id.Wakeup()
}

// Spawn schedules c under id. If the calling goroutine is one of this
// pool's own workers, c is delivered straight to that worker's own queue
// (send buffer, falling back to the receive deque on refusal). Otherwise
// an initial victim is chosen by round-robin and the task is retried
// against successive workers, rehoming it to each candidate's queue in
// turn, until one accepts it or every worker has been tried (the last of
// which always accepts, via the receive-deque escalation path).
func (p *Pool[O]) Spawn(id *TaskID, c Computation[O]) error {
	if p.metrics != nil {
		p.metrics.TasksSpawned.Inc()
	}

	if idx, ok := p.localWorkerIndex(); ok {
		home := p.workers[idx]
		t := newTask(id, c, home)
		if refused, accepted := home.Send.TrySend(t); !accepted {
			home.Recv.Append(refused, home.Counter)
		}
		return nil
	}
	return p.dispatchRemote(id, c)
}

// localWorkerIndex reports the calling goroutine's worker index within
// this pool, if it is one of this pool's own workers.
func (p *Pool[O]) localWorkerIndex() (int, bool) {
	cur, bound := workerid.Current()
	if !bound || cur>>8 != p.id {
		return 0, false
	}
	idx := int(cur&0xff) - 1
	if idx < 0 || idx >= len(p.workers) {
		return 0, false
	}
	return idx, true
}

// dispatchRemote implements the round-robin-with-rehome-and-retry policy
// for a caller outside this pool.
func (p *Pool[O]) dispatchRemote(id *TaskID, c Computation[O]) error {
	n := len(p.workers)
	start := int((atomic.AddUint64(&p.rrCounter, 1) - 1) % uint64(n))

	var t *Task[O]
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		victim := p.workers[idx]
		if t == nil || t.home != victim {
			t = newTask(id, c, victim)
		}
		if _, accepted := victim.TrySendNotify(t); accepted {
			return nil
		}
	}
	// Every worker's send buffer refused: the last candidate's receive
	// deque always accepts.
	p.workers[(start+n-1)%n].EscalateNotify(t)
	return nil
}

// workerLoop is the body every worker goroutine runs for the pool's
// lifetime: publish a stable identity, then try-recv, steal, or park in a
// loop until Shutdown closes stopCh.
func (p *Pool[O]) workerLoop(idx int) {
	home := p.workers[idx]
	workerid.Bind(home.ID)
	defer workerid.Unbind()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		if p.metrics != nil {
			p.metrics.QueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(home.Len()))
		}

		if t, ok := home.TryRecv(); ok {
			p.pollTask(idx, t)
			continue
		}

		if p.enableSteal {
			if batch, ok := queue.Steal[*Task[O]](p.workers, idx, p.counter.Load()); ok {
				if p.metrics != nil {
					p.metrics.StealAttempts.Inc()
					p.metrics.StealSuccesses.Inc()
				}
				home.Send.Append(batch)
				continue
			}
			if p.metrics != nil {
				p.metrics.StealAttempts.Inc()
			}
		}

		home.Waker.Wait(p.parkTimeout)
	}
}

// pollTask takes t's computation, rehomes it onto a fresh Task bound to
// this worker's queue if t belongs to a different worker's queue (a task a
// steal round folded into this worker's send buffer), polls it once, and
// either drops it (ready) or puts it back (still pending).
func (p *Pool[O]) pollTask(idx int, t *Task[O]) {
	home := p.workers[idx]

	comp, ok := t.TakeComputation()
	if !ok {
		// Another goroutine is concurrently polling or rehoming this same
		// task (a race only stealing can create): bounce it back to our
		// own send buffer untouched rather than poll or rehome it twice.
		home.Send.Send(t)
		return
	}

	if t.home != home {
		t = newTask(&TaskID{}, comp, home)
		comp, _ = t.TakeComputation()
	}

	p.logger.Debug("polling task", zap.Uint16("pool", p.id), zap.Int("worker", idx))
	if p.metrics != nil {
		p.metrics.TasksPolled.Inc()
	}

	cx := &Context[O]{ID: t.id, Waker: newWaker(t), Runtime: p}
	start := time.Now()
	_, done := comp.Poll(cx)
	if p.metrics != nil {
		p.metrics.PollLatency.Observe(time.Since(start).Seconds())
	}
	if done {
		if p.metrics != nil {
			p.metrics.TasksCompleted.Inc()
		}
		return
	}
	t.PutComputation(comp)
}

// WaitTimeout arranges for id to be woken once delay has elapsed, via
// this pool's timer goroutine if one was configured, or a dedicated
// goroutine that sleeps for delay otherwise (the degraded mode: it costs
// one extra goroutine per pending timeout rather than blocking a worker
// for the duration).
func (p *Pool[O]) WaitTimeout(id *TaskID, delay time.Duration) {
	fire := func() { p.Wakeup(id) }
	if p.timer != nil {
		p.timer.register(fire, delay)
		return
	}
	go func() {
		time.Sleep(delay)
		fire()
	}()
}

// Handle is the runtime-facing view of a Pool returned by Startup and
// Runtime: every exported Pool method is available on it, under the name
// external callers (and the suspend primitives in wait.go/waitany.go/
// mapjoin.go, written against the Runtime[O] interface) use.
type Handle[O any] struct {
	*Pool[O]
}
