// Package memory is an in-process storage.KV for tests and sessions that
// should not touch disk.
package memory

import (
	"context"
	"sync"

	"github.com/fenggwsx/StartupMatch/internal/storage"
)

// Store keeps values in a map.
type Store struct {
	mu       sync.Mutex
	data     map[string]string
	maxBytes int
	writes   int
	failWith error
}

// NewStore returns an empty Store. maxBytes limits the size of a single value;
// zero means unlimited.
func NewStore(maxBytes int) *Store {
	return &Store{data: make(map[string]string), maxBytes: maxBytes}
}

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if err := storage.CheckQuota(key, value, s.maxBytes); err != nil {
		return err
	}
	s.data[key] = value
	s.writes++
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Writes returns the number of successful writes.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// FailWrites makes every later Set return err until it is called with nil.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}
