// Package memo caches derived values so they are recomputed only when their
// inputs change. Cache hits return the previously computed value unchanged,
// which lets consumers skip their own work on identity.
package memo

import (
	"sync"
	"time"

	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/equal"
)

type settings struct {
	eq    equal.Func
	ttl   time.Duration
	clock clock.Clock
}

// Option configures a Memo or Handle.
type Option func(*settings)

// WithEqual replaces the dependency comparison (equal.Deep by default). The
// function receives the previous and the new dependency lists as []any.
func WithEqual(eq equal.Func) Option {
	return func(s *settings) { s.eq = eq }
}

// WithTTL opens a caching window of ttl after each computation. Inside the
// window dependency changes are ignored; once it closes the next Get
// recomputes.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) { s.ttl = ttl }
}

// WithClock sets the time source used for TTL checks.
func WithClock(c clock.Clock) Option {
	return func(s *settings) { s.clock = c }
}

func newSettings(opts []Option) settings {
	s := settings{eq: equal.Deep}
	for _, opt := range opts {
		opt(&s)
	}
	s.clock = clock.OrReal(s.clock)
	return s
}

// Memo holds the result of factory for the last dependency list it saw.
type Memo[T any] struct {
	mu         sync.Mutex
	factory    func() T
	settings   settings
	deps       []any
	value      T
	computedAt time.Time
	valid      bool
	computes   int
}

// New returns a Memo around factory.
func New[T any](factory func() T, opts ...Option) *Memo[T] {
	return &Memo[T]{factory: factory, settings: newSettings(opts)}
}

// Get returns the cached value. Without a TTL it recomputes when deps differ
// from the previous call; a dependency list of a different length always
// counts as changed. With a TTL the value is held for the whole window,
// whatever the deps, and recomputed on the first Get after it expires.
func (m *Memo[T]) Get(deps ...any) T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && !m.staleLocked(deps) {
		return m.value
	}

	m.value = m.factory()
	m.deps = append([]any(nil), deps...)
	m.computedAt = m.settings.clock.Now()
	m.valid = true
	m.computes++
	return m.value
}

// Invalidate forces the next Get to recompute.
func (m *Memo[T]) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valid = false
}

// Computes reports how many times the factory has run.
func (m *Memo[T]) Computes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computes
}

func (m *Memo[T]) staleLocked(deps []any) bool {
	if m.settings.ttl <= 0 {
		return !sameDeps(m.settings.eq, m.deps, deps)
	}
	return m.settings.clock.Now().Sub(m.computedAt) >= m.settings.ttl
}

func sameDeps(eq equal.Func, prev, next []any) bool {
	if len(prev) != len(next) {
		return false
	}
	if len(prev) == 0 {
		return true
	}
	return eq(prev, next)
}
