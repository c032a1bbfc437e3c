package scheduler

import (
	"sync"
	"time"
)

// TimerSet holds cancellable one-shot timers keyed by an arbitrary string
// (typically "userID|kind"). Starting a timer under a key that already has
// one cancels the previous timer first, so at most one timer per key is live.
type TimerSet struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerSet() *TimerSet {
	return &TimerSet{timers: make(map[string]*time.Timer)}
}

// Start schedules fn after d under key, cancelling any prior timer for key.
func (ts *TimerSet) Start(key string, d time.Duration, fn func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if t, ok := ts.timers[key]; ok {
		t.Stop()
	}
	ts.timers[key] = time.AfterFunc(d, func() {
		ts.mu.Lock()
		delete(ts.timers, key)
		ts.mu.Unlock()
		fn()
	})
}

// Cancel stops the timer for key if one is pending. It reports whether a
// timer was cancelled before firing.
func (ts *TimerSet) Cancel(key string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	t, ok := ts.timers[key]
	if !ok {
		return false
	}
	delete(ts.timers, key)
	return t.Stop()
}

// Active reports whether a timer is pending for key.
func (ts *TimerSet) Active(key string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	_, ok := ts.timers[key]
	return ok
}

// StopAll cancels every pending timer.
func (ts *TimerSet) StopAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for k, t := range ts.timers {
		t.Stop()
		delete(ts.timers, k)
	}
}
