// Package halheartbeat implements the two independent liveness timers the
// session keeps for its command and subscribe channels. The two channels
// have different liveness semantics (round-trip ping/ack vs. silence
// detection) and are deliberately kept as separate Tracker instances rather
// than parameterizing one type by a mode flag, mirroring the teacher's
// single-purpose per-connection pingLoop goroutine.
package halheartbeat

import (
	"context"
	"sync"
	"time"
)

// Tracker runs a periodic tick on its own goroutine while started. A period
// of zero disables the tracker: Start schedules no ticks.
type Tracker struct {
	period time.Duration
	onTick func()

	mu         sync.Mutex
	cancel     context.CancelFunc
	running    bool
	outstanding bool
	resetCh    chan struct{}
}

// New creates a Tracker with the given period and tick callback. onTick is
// invoked on its own goroutine each time the period elapses without an
// intervening Refresh or Stop.
func New(period time.Duration, onTick func()) *Tracker {
	return &Tracker{period: period, onTick: onTick}
}

// SetPeriod updates the tracker's period. Takes effect on the next Start;
// does not affect an already-running tracker's current tick.
func (t *Tracker) SetPeriod(period time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.period = period
}

// Start schedules periodic ticks and resets the outstanding-ping flag. With
// a zero period Start still stops any running tick and resets the flag, but
// schedules nothing, so the tracker never fires.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.stopLocked()
	}
	t.outstanding = false
	if t.period <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.running = true
	resetCh := make(chan struct{}, 1)
	t.resetCh = resetCh
	period := t.period
	go t.run(ctx, period, resetCh)
}

func (t *Tracker) run(ctx context.Context, period time.Duration, resetCh chan struct{}) {
	timer := time.NewTimer(period)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-resetCh:
			timer.Reset(period)
		case <-timer.C:
			t.onTick()
			timer.Reset(period)
		}
	}
}

// Stop cancels pending ticks. Safe to call when not running.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.running = false
	t.resetCh = nil
}

// Refresh pushes the next tick out by a full period from now. No-op if not
// running.
func (t *Tracker) Refresh() {
	t.mu.Lock()
	running := t.running
	resetCh := t.resetCh
	t.mu.Unlock()
	if !running || resetCh == nil {
		return
	}
	select {
	case resetCh <- struct{}{}:
	default:
	}
}

// Running reports whether the tracker currently has a scheduled tick.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// SetOutstanding records whether a ping sent on this channel is awaiting
// acknowledgement. Only meaningful for the command tracker; the subscribe
// tracker writes it for observability parity but never reads it back
// (spec's reference implementation does the same).
func (t *Tracker) SetOutstanding(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outstanding = v
}

// Outstanding reports the last value passed to SetOutstanding.
func (t *Tracker) Outstanding() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outstanding
}
