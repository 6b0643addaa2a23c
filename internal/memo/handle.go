package memo

import "sync"

// Handle is a long-lived indirection cell around a function. Consumers keep
// the Handle (or the wrapper returned by Func) and always reach the current
// implementation, which is swapped only when its dependencies change.
type Handle[A, R any] struct {
	mu       sync.RWMutex
	fn       func(A) R
	deps     []any
	settings settings
	wrapper  func(A) R
}

// NewHandle returns a Handle whose implementation is fn.
func NewHandle[A, R any](fn func(A) R, deps []any, opts ...Option) *Handle[A, R] {
	h := &Handle[A, R]{
		fn:       fn,
		deps:     append([]any(nil), deps...),
		settings: newSettings(opts),
	}
	h.wrapper = h.Call
	return h
}

// Update installs fn if deps differ from the dependencies of the current
// implementation. It reports whether the swap happened.
func (h *Handle[A, R]) Update(fn func(A) R, deps ...any) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sameDeps(h.settings.eq, h.deps, deps) {
		return false
	}
	h.fn = fn
	h.deps = append([]any(nil), deps...)
	return true
}

// Call invokes the current implementation.
func (h *Handle[A, R]) Call(arg A) R {
	h.mu.RLock()
	fn := h.fn
	h.mu.RUnlock()
	return fn(arg)
}

// Func returns the wrapper created with the Handle. It is the same function
// value on every call.
func (h *Handle[A, R]) Func() func(A) R {
	return h.wrapper
}
