package syncutil

import (
	"sync"
	"time"
)

// Event is a manual-reset event: waiters block until the condition is set,
// and it stays set until explicitly reset. Wait functions cope with spurious
// wakeups, so callers never have to re-check the condition themselves.
type Event struct {
	mu   sync.Mutex
	cond *sync.Cond
	set  bool
}

// NewEvent creates an event with the condition unset.
func NewEvent() *Event {
	e := &Event{}
	e.cond = sync.NewCond(&e.mu)

	return e
}

// Set marks the condition met and wakes every waiter.
func (e *Event) Set() {
	e.mu.Lock()
	e.set = true
	e.mu.Unlock()

	e.cond.Broadcast()
}

// Reset marks the condition unmet.
func (e *Event) Reset() {
	e.mu.Lock()
	e.set = false
	e.mu.Unlock()
}

// IsSet reports whether the condition is currently met.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.set
}

// Wait blocks until the condition is set.
func (e *Event) Wait() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for !e.set {
		e.cond.Wait()
	}
}

// WaitTimeout blocks until the condition is set or d elapses. Returns the
// state of the condition when the wait ended.
func (e *Event) WaitTimeout(d time.Duration) bool {
	deadline := time.Now().Add(d)

	e.mu.Lock()
	defer e.mu.Unlock()

	for !e.set {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}

		timer := time.AfterFunc(remaining, e.cond.Broadcast)
		e.cond.Wait()
		timer.Stop()
	}

	return true
}
