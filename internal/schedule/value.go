package schedule

import (
	"slices"
	"sync"
	"time"

	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/equal"
)

// Value is a debounced value. Inputs passed to Set reach the output only once
// they have been stable for the configured delay, or when MaxWait forces them
// through.
type Value[T any] struct {
	mu        sync.Mutex
	clock     clock.Clock
	delay     time.Duration
	leading   bool
	maxWait   time.Duration
	eq        equal.Func
	accepted  T
	output    T
	timers    timerSet
	closed    bool
	listeners []func(T)
}

// NewValue returns a debounced value whose output starts at initial.
func NewValue[T any](initial T, delay time.Duration, opts Options) *Value[T] {
	return &Value[T]{
		clock:    clock.OrReal(opts.Clock),
		delay:    delay,
		leading:  opts.Leading,
		maxWait:  opts.MaxWait,
		eq:       opts.equal(),
		accepted: initial,
		output:   initial,
	}
}

// OnChange registers fn to receive every new output. Listeners run outside
// the internal lock and may call back into the Value.
func (v *Value[T]) OnChange(fn func(T)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// Set feeds a new input. Inputs equal to the last accepted input are ignored.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	if v.closed || v.eq(next, v.accepted) {
		v.mu.Unlock()
		return
	}
	v.accepted = next

	changed := false
	if v.leading && !v.timers.pending() {
		changed = v.applyLocked(next)
	}
	v.timers.armTrailing(v.clock, v.delay, v.fireTrailing)
	v.timers.armMaxWait(v.clock, v.maxWait, v.fireMaxWait)
	v.unlockAndNotify(changed)
}

// Get returns the current debounced output.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.output
}

// Pending reports whether an accepted input is waiting for its timer.
func (v *Value[T]) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.timers.pending()
}

// Flush applies the pending input immediately.
func (v *Value[T]) Flush() {
	v.mu.Lock()
	if v.closed || !v.timers.pending() {
		v.mu.Unlock()
		return
	}
	v.timers.clear()
	v.unlockAndNotify(v.applyLocked(v.accepted))
}

// Cancel drops the pending input; the output keeps its current value.
func (v *Value[T]) Cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timers.clear()
	v.accepted = v.output
}

// Close stops all timers. Later Set calls and late timer callbacks are no-ops.
func (v *Value[T]) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timers.clear()
	v.closed = true
}

func (v *Value[T]) fireTrailing(token uint64) {
	v.mu.Lock()
	if v.closed || token != v.timers.trailingToken {
		v.mu.Unlock()
		return
	}
	v.timers.clear()
	v.unlockAndNotify(v.applyLocked(v.accepted))
}

func (v *Value[T]) fireMaxWait(token uint64) {
	v.mu.Lock()
	if v.closed || token != v.timers.maxToken {
		v.mu.Unlock()
		return
	}
	v.timers.clear()
	v.unlockAndNotify(v.applyLocked(v.accepted))
}

func (v *Value[T]) applyLocked(next T) bool {
	if v.eq(v.output, next) {
		return false
	}
	v.output = next
	return true
}

func (v *Value[T]) unlockAndNotify(changed bool) {
	if !changed {
		v.mu.Unlock()
		return
	}
	out := v.output
	listeners := slices.Clone(v.listeners)
	v.mu.Unlock()
	for _, fn := range listeners {
		fn(out)
	}
}
