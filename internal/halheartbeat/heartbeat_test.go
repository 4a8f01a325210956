package halheartbeat

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestZeroPeriodDisables(t *testing.T) {
	var ticks int32
	tr := New(0, func() { atomic.AddInt32(&ticks, 1) })
	tr.Start()
	time.Sleep(20 * time.Millisecond)
	if tr.Running() {
		t.Fatalf("expected tracker with zero period to not be running")
	}
	if atomic.LoadInt32(&ticks) != 0 {
		t.Fatalf("expected no ticks with zero period")
	}
}

func TestTickFires(t *testing.T) {
	var ticks int32
	tr := New(10*time.Millisecond, func() { atomic.AddInt32(&ticks, 1) })
	tr.Start()
	defer tr.Stop()

	deadline := time.Now().Add(500 * time.Millisecond)
	for atomic.LoadInt32(&ticks) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&ticks) == 0 {
		t.Fatalf("expected at least one tick")
	}
}

func TestRefreshDefersTick(t *testing.T) {
	var ticks int32
	tr := New(30*time.Millisecond, func() { atomic.AddInt32(&ticks, 1) })
	tr.Start()
	defer tr.Stop()

	// Keep refreshing for longer than one period; no tick should fire.
	refreshDeadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(refreshDeadline) {
		tr.Refresh()
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&ticks) != 0 {
		t.Fatalf("expected refresh to suppress ticks, got %d", ticks)
	}
}

func TestStopCancelsTicks(t *testing.T) {
	var ticks int32
	tr := New(10*time.Millisecond, func() { atomic.AddInt32(&ticks, 1) })
	tr.Start()
	tr.Stop()
	if tr.Running() {
		t.Fatalf("expected tracker stopped")
	}
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&ticks) != 0 {
		t.Fatalf("expected no ticks after Stop, got %d", ticks)
	}
}

func TestOutstandingFlagResetOnStart(t *testing.T) {
	tr := New(time.Second, func() {})
	tr.SetOutstanding(true)
	tr.Start()
	defer tr.Stop()
	if tr.Outstanding() {
		t.Fatalf("expected Start to reset outstanding flag")
	}
}
