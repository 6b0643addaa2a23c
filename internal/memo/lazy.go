package memo

import "sync"

// Lazy computes a value at most once, the first time Get is called with
// ready set. The value never changes afterwards.
type Lazy[T any] struct {
	mu      sync.Mutex
	compute func() T
	value   T
	done    bool
}

// NewLazy returns a Lazy around compute.
func NewLazy[T any](compute func() T) *Lazy[T] {
	return &Lazy[T]{compute: compute}
}

// Get returns the value and whether it has been computed.
func (l *Lazy[T]) Get(ready bool) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.done && ready {
		l.value = l.compute()
		l.done = true
		l.compute = nil
	}
	return l.value, l.done
}
