package schedule

import (
	"sync"
	"time"

	"github.com/fenggwsx/StartupMatch/internal/clock"
)

// Func is a debounced callback. Call records the latest arguments; the
// callback runs once the calls have paused for the delay, or when MaxWait
// forces it. The callback invoked is always the one most recently passed to
// SetCallback.
type Func[A any] struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	leading bool
	maxWait time.Duration
	fn      func(A)
	args    A
	queued  bool
	timers  timerSet
	closed  bool
}

// NewFunc wraps fn.
func NewFunc[A any](fn func(A), delay time.Duration, opts Options) *Func[A] {
	return &Func[A]{
		clock:   clock.OrReal(opts.Clock),
		delay:   delay,
		leading: opts.Leading,
		maxWait: opts.MaxWait,
		fn:      fn,
	}
}

// SetCallback replaces the callback used by future invocations, including
// one that is already scheduled.
func (f *Func[A]) SetCallback(fn func(A)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
}

// Call schedules an invocation with args.
func (f *Func[A]) Call(args A) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.args = args
	now := f.leading && !f.timers.pending()
	f.queued = !now
	f.timers.armTrailing(f.clock, f.delay, f.fireTrailing)
	f.timers.armMaxWait(f.clock, f.maxWait, f.fireMaxWait)
	fn := f.fn
	f.mu.Unlock()

	if now && fn != nil {
		fn(args)
	}
}

// Pending reports whether an invocation is waiting.
func (f *Func[A]) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queued
}

// Flush runs a waiting invocation immediately.
func (f *Func[A]) Flush() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.timers.clear()
	f.invokeAndUnlock()
}

// Cancel drops a waiting invocation.
func (f *Func[A]) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timers.clear()
	f.queued = false
}

// Close cancels the pending invocation and disables the Func.
func (f *Func[A]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timers.clear()
	f.queued = false
	f.closed = true
}

func (f *Func[A]) fireTrailing(token uint64) {
	f.mu.Lock()
	if f.closed || token != f.timers.trailingToken {
		f.mu.Unlock()
		return
	}
	f.timers.clear()
	f.invokeAndUnlock()
}

func (f *Func[A]) fireMaxWait(token uint64) {
	f.mu.Lock()
	if f.closed || token != f.timers.maxToken {
		f.mu.Unlock()
		return
	}
	f.timers.clear()
	f.invokeAndUnlock()
}

func (f *Func[A]) invokeAndUnlock() {
	if !f.queued || f.fn == nil {
		f.queued = false
		f.mu.Unlock()
		return
	}
	f.queued = false
	fn, args := f.fn, f.args
	f.mu.Unlock()
	fn(args)
}
