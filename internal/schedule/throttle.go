package schedule

import (
	"slices"
	"sync"
	"time"

	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/equal"
)

// Throttle caps how often a value may change: at most once per limit. An
// input arriving inside the window is not dropped; a catch-up update applies
// the latest input when the window closes.
type Throttle[T any] struct {
	mu        sync.Mutex
	clock     clock.Clock
	limit     time.Duration
	eq        equal.Func
	latest    T
	output    T
	lastRun   time.Time
	timer     clock.Timer
	token     uint64
	closed    bool
	listeners []func(T)
}

// NewThrottle returns a throttled value. The construction time counts as the
// last update.
func NewThrottle[T any](initial T, limit time.Duration, opts Options) *Throttle[T] {
	c := clock.OrReal(opts.Clock)
	return &Throttle[T]{
		clock:   c,
		limit:   limit,
		eq:      opts.equal(),
		latest:  initial,
		output:  initial,
		lastRun: c.Now(),
	}
}

// OnChange registers fn to receive every new output.
func (t *Throttle[T]) OnChange(fn func(T)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Set feeds a new input.
func (t *Throttle[T]) Set(next T) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.latest = next

	elapsed := t.clock.Now().Sub(t.lastRun)
	if elapsed >= t.limit {
		t.stopLocked()
		t.unlockAndNotify(t.applyLocked())
		return
	}
	if t.timer == nil {
		t.token++
		token := t.token
		t.timer = t.clock.AfterFunc(t.limit-elapsed, func() { t.fire(token) })
	}
	t.mu.Unlock()
}

// Get returns the current throttled output.
func (t *Throttle[T]) Get() T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output
}

// Close stops the catch-up timer.
func (t *Throttle[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.closed = true
}

func (t *Throttle[T]) fire(token uint64) {
	t.mu.Lock()
	if t.closed || token != t.token || t.timer == nil {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.unlockAndNotify(t.applyLocked())
}

func (t *Throttle[T]) applyLocked() bool {
	if t.eq(t.output, t.latest) {
		return false
	}
	t.output = t.latest
	t.lastRun = t.clock.Now()
	return true
}

func (t *Throttle[T]) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.token++
}

func (t *Throttle[T]) unlockAndNotify(changed bool) {
	if !changed {
		t.mu.Unlock()
		return
	}
	out := t.output
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()
	for _, fn := range listeners {
		fn(out)
	}
}
