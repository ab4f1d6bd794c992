package asyncrt

import (
	"time"

	"github.com/go-foundations/asyncrt/internal/wheel"
)

// timerDriver drains timer registrations into a wheel on its own goroutine
// and advances that wheel by one tick on every tick of its ticker, firing
// each expired entry's callback inline as it fires.
type timerDriver struct {
	tick  time.Duration
	ring  *wheel.Wheel
	regCh chan timerRegistration
	stop  chan struct{}
}

type timerRegistration struct {
	fire  func()
	delay time.Duration
}

// newTimerDriver builds a driver ticking every tick, with bucketCount
// buckets in its ring (entries due further out than bucketCount*tick wait
// in the overflow heap until their round arrives).
func newTimerDriver(tick time.Duration, bucketCount int) *timerDriver {
	return &timerDriver{
		tick:  tick,
		ring:  wheel.New(bucketCount),
		regCh: make(chan timerRegistration, 64),
		stop:  make(chan struct{}),
	}
}

// register schedules fire to run once delay has elapsed on the driver's
// own clock. Safe to call from any goroutine, including one that is not a
// runtime worker.
func (d *timerDriver) register(fire func(), delay time.Duration) {
	select {
	case d.regCh <- timerRegistration{fire: fire, delay: delay}:
	case <-d.stop:
	}
}

// run is the driver's goroutine body: it returns once shutdown is called.
func (d *timerDriver) run() {
	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	var now uint64
	for {
		select {
		case <-d.stop:
			return
		case reg := <-d.regCh:
			delayTicks := uint64(reg.delay / d.tick)
			d.ring.Insert(now+delayTicks, reg.fire)
		case <-ticker.C:
			now++
			d.ring.Advance(now)
		}
	}
}

func (d *timerDriver) shutdown() {
	close(d.stop)
}
