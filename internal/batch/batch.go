// Package batch coalesces state updates that arrive within one scheduling
// window into a single transition with a single notification.
package batch

import (
	"slices"
	"sync"
	"time"

	"github.com/fenggwsx/StartupMatch/internal/clock"
)

// DefaultWindow is roughly one display frame.
const DefaultWindow = 16 * time.Millisecond

// Options tunes a Batcher.
type Options struct {
	// Window is how long updates are collected before they are applied.
	Window time.Duration
	Clock  clock.Clock
}

// Batcher owns a state value of type S. Updates are queued and applied in
// submission order when the window closes.
type Batcher[S any] struct {
	flushMu   sync.Mutex
	mu        sync.Mutex
	clock     clock.Clock
	window    time.Duration
	state     S
	queue     []func(S) S
	timer     clock.Timer
	token     uint64
	closed    bool
	flushes   int
	listeners []func(S)
}

// New returns a Batcher holding initial.
func New[S any](initial S, opts Options) *Batcher[S] {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Batcher[S]{
		clock:  clock.OrReal(opts.Clock),
		window: window,
		state:  initial,
	}
}

// OnFlush registers fn to receive the state after each applied batch.
// Listeners must not call Flush or Close.
func (b *Batcher[S]) OnFlush(fn func(S)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Set queues a replacement of the whole state.
func (b *Batcher[S]) Set(next S) {
	b.Update(func(S) S { return next })
}

// Update queues fn. Updates submitted after Close are dropped.
func (b *Batcher[S]) Update(fn func(S) S) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.queue = append(b.queue, fn)
	if b.timer == nil {
		b.token++
		token := b.token
		b.timer = b.clock.AfterFunc(b.window, func() { b.fire(token) })
	}
}

// State returns the last applied state. Queued updates are not visible
// until they are flushed.
func (b *Batcher[S]) State() S {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Queued returns the number of updates waiting for the next flush.
func (b *Batcher[S]) Queued() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Flushes returns the number of batches applied so far.
func (b *Batcher[S]) Flushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushes
}

// Flush applies the queued updates now.
func (b *Batcher[S]) Flush() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	b.stopTimerLocked()
	b.applyAndUnlock()
}

// Close flushes whatever is queued and disables the Batcher.
func (b *Batcher[S]) Close() {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	b.closed = true
	b.stopTimerLocked()
	b.applyAndUnlock()
}

func (b *Batcher[S]) fire(token uint64) {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	if token != b.token || b.timer == nil {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.applyAndUnlock()
}

// applyAndUnlock runs the queued updaters outside b.mu so they may read the
// Batcher. It must be called with flushMu and mu held.
func (b *Batcher[S]) applyAndUnlock() {
	queue := b.queue
	b.queue = nil
	state := b.state
	b.mu.Unlock()

	if len(queue) == 0 {
		return
	}
	for _, fn := range queue {
		state = fn(state)
	}

	b.mu.Lock()
	b.state = state
	b.flushes++
	listeners := slices.Clone(b.listeners)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (b *Batcher[S]) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.token++
}
