// Package scheduler provides the deferred-execution primitive used to
// stagger injected attack writes over time, decoupled from any platform
// scheduler.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler runs a function after a delay. Implementations decide whether
// the delay is real (timers) or collapsed (tests, one-shot CLIs).
type Scheduler interface {
	RunAfter(delay time.Duration, fn func())
}

// Timer schedules functions on real timers. Each scheduled unit runs on
// its own goroutine once its delay elapses.
type Timer struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	timers []*time.Timer
	closed bool
}

// NewTimer returns a ready Timer scheduler.
func NewTimer() *Timer {
	return &Timer{}
}

// RunAfter arranges for fn to run once delay has elapsed. Calls after
// Close are dropped.
func (t *Timer) RunAfter(delay time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	t.wg.Add(1)
	timer := time.AfterFunc(delay, func() {
		defer t.wg.Done()
		fn()
	})
	t.timers = append(t.timers, timer)
}

// Wait blocks until every scheduled unit has finished.
func (t *Timer) Wait() {
	t.wg.Wait()
}

// Close stops units that have not fired yet and rejects new ones. Units
// already running are left to finish; pair with Wait for full drain.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	for _, timer := range t.timers {
		if timer.Stop() {
			t.wg.Done()
		}
	}
	t.timers = nil
}

// Synchronous runs each function inline, ignoring the delay. Used by tests
// and anywhere a caller wants injector writes to complete before returning.
type Synchronous struct{}

// RunAfter executes fn immediately on the calling goroutine.
func (Synchronous) RunAfter(_ time.Duration, fn func()) {
	fn()
}
