package sink

import (
	"sync"
	"time"
)

const (
	// Target maximum number of outstanding sample requests. Bounds memory
	// use at most requestHighWater samples in flight.
	requestHighWater = 3

	// Repoll cadence, derived from an assumed 30 fps. The fixed-interval
	// repoll (rather than request-on-drain) trades a small scheduling
	// latency for simplicity.
	requestInterval = 33 * time.Millisecond
)

// requestScheduler keeps decoder work flowing without unbounded buffering.
// It maintains the outstanding-request counter and tops it up to the high
// water mark on every tick, then unconditionally reschedules itself. Ticks
// are serialized: the next tick is armed only after the current one
// completes.
//
// The mutex is the sink-wide lock shared with the owning stream, so request
// emission and sample delivery mutate the counter race-free.
type requestScheduler struct {
	mu *sync.Mutex

	// Outstanding "give me a sample" requests. Invariant: never negative.
	outstanding int

	// Emits one request-sample notification. Called with mu held.
	request func()

	timer    *time.Timer
	shutdown bool
}

func newRequestScheduler(mu *sync.Mutex, request func()) *requestScheduler {
	return &requestScheduler{mu: mu, request: request}
}

// kickLocked starts (or immediately re-runs) the pacing loop. Caller holds mu.
func (rs *requestScheduler) kickLocked() {
	if rs.shutdown {
		return
	}
	rs.tickLocked()
}

// tick is the timer callback.
func (rs *requestScheduler) tick() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.shutdown {
		// A tick firing after shutdown exits without emitting.
		return
	}
	rs.tickLocked()
}

// tickLocked emits requests up to the high water mark, then reschedules
// regardless of whether any were emitted this tick.
func (rs *requestScheduler) tickLocked() {
	for rs.outstanding < requestHighWater && !rs.shutdown {
		rs.outstanding++
		rs.request()
	}

	if rs.timer == nil {
		rs.timer = time.AfterFunc(requestInterval, rs.tick)
	} else {
		rs.timer.Reset(requestInterval)
	}
}

// deliveredLocked records one delivered sample. Caller holds mu. The counter
// never goes negative, even if a sample arrives unrequested.
func (rs *requestScheduler) deliveredLocked() {
	if rs.outstanding > 0 {
		rs.outstanding--
	}
}

// cancelLocked stops the loop permanently. Caller holds mu. Idempotent.
func (rs *requestScheduler) cancelLocked() {
	rs.shutdown = true
	if rs.timer != nil {
		rs.timer.Stop()
	}
}

func (rs *requestScheduler) outstandingCount() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.outstanding
}
