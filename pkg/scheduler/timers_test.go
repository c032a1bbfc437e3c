package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerSetStartCancelsPrevious(t *testing.T) {
	ts := NewTimerSet()
	defer ts.StopAll()

	var first, second atomic.Int32
	ts.Start("u1|arm-reset", 20*time.Millisecond, func() { first.Add(1) })
	ts.Start("u1|arm-reset", 20*time.Millisecond, func() { second.Add(1) })

	time.Sleep(60 * time.Millisecond)

	if first.Load() != 0 {
		t.Error("previous timer should have been cancelled")
	}
	if second.Load() != 1 {
		t.Errorf("replacement timer should have fired once, fired %d", second.Load())
	}
}

func TestTimerSetCancel(t *testing.T) {
	ts := NewTimerSet()
	defer ts.StopAll()

	var fired atomic.Int32
	ts.Start("u2|disarm-hold", 20*time.Millisecond, func() { fired.Add(1) })

	if !ts.Cancel("u2|disarm-hold") {
		t.Error("expected Cancel to report a pending timer")
	}
	if ts.Cancel("u2|disarm-hold") {
		t.Error("second Cancel should report nothing pending")
	}

	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("cancelled timer must not fire")
	}
}

func TestTimerSetKeysIndependent(t *testing.T) {
	ts := NewTimerSet()
	defer ts.StopAll()

	var a, b atomic.Int32
	ts.Start("u3|arm-reset", 10*time.Millisecond, func() { a.Add(1) })
	ts.Start("u4|arm-reset", 10*time.Millisecond, func() { b.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if a.Load() != 1 || b.Load() != 1 {
		t.Errorf("both timers should fire once, got %d and %d", a.Load(), b.Load())
	}
}
