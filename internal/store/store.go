// Package store holds the client's domain state in memory and mirrors a
// capped projection of it to durable key-value storage after every change.
//
// A Store is created by Create, which hydrates it from the last snapshot, and
// ends with Teardown. All mutation goes through named actions; readers take
// immutable State values or subscribe to slices of it with Watch.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fenggwsx/StartupMatch/internal/auth"
	"github.com/fenggwsx/StartupMatch/internal/clock"
	"github.com/fenggwsx/StartupMatch/internal/snapshot"
	"github.com/fenggwsx/StartupMatch/internal/storage"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "startupmatch-store"

// ErrClosed is returned by actions on a torn down store.
var ErrClosed = errors.New("store is closed")

type options struct {
	key          string
	logger       *zap.Logger
	clock        clock.Clock
	registerer   prometheus.Registerer
	writeTimeout time.Duration
}

// Option configures Create.
type Option func(*options)

// WithKey sets the storage key the snapshot is kept under.
func WithKey(key string) Option {
	return func(o *options) { o.key = key }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the time source for timestamps and session expiry.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRegisterer registers the store metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithWriteTimeout bounds each snapshot write.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

type listener struct {
	id int
	fn func(prev, next State)
}

type notification struct {
	prev, next State
	listeners  []listener
}

// Store is the single owner of the client state.
type Store struct {
	// persistMu serializes actions so snapshot writes land in the same order
	// as the mutations they mirror.
	persistMu sync.Mutex

	mu        sync.RWMutex
	state     State
	phase     Phase
	listeners []listener
	nextID    int

	// notifyMu guards the queue of committed transitions. Only one goroutine
	// delivers at a time, so listeners see transitions in commit order.
	notifyMu   sync.Mutex
	pending    []notification
	delivering bool

	kv           storage.KV
	key          string
	logger       *zap.Logger
	clock        clock.Clock
	metrics      *Metrics
	writeTimeout time.Duration
}

// Create reads the snapshot stored under the configured key, migrates it to
// the current schema and returns a hydrated store. Unreadable or
// unmigratable snapshots are logged and replaced by the default state; only
// a done ctx makes Create fail.
func Create(ctx context.Context, kv storage.KV, opts ...Option) (*Store, error) {
	o := options{key: DefaultKey, writeTimeout: 2 * time.Second}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	s := &Store{
		kv:           kv,
		key:          o.key,
		logger:       o.logger.With(zap.String("key", o.key)),
		clock:        clock.OrReal(o.clock),
		metrics:      NewMetrics(o.registerer),
		writeTimeout: o.writeTimeout,
		state:        DefaultState(),
	}

	state, outcome, err := s.hydrate(ctx)
	if err != nil {
		return nil, err
	}
	s.state = state
	s.phase = PhaseHydrated
	s.metrics.Hydrations.WithLabelValues(outcome).Inc()
	s.logger.Info("store hydrated",
		zap.String("outcome", outcome),
		zap.Int("projects", len(state.Projects)),
		zap.Bool("authenticated", state.Authenticated),
	)
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) (State, string, error) {
	data, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return DefaultState(), HydrateEmpty, nil
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return State{}, "", fmt.Errorf("hydrate store: %w", ctxErr)
		}
		s.logger.Warn("snapshot read failed, using defaults", zap.Error(err))
		return DefaultState(), HydrateFallback, nil
	}

	env, err := snapshot.Decode(data)
	if err != nil {
		s.logger.Warn("snapshot unreadable, using defaults", zap.Int("bytes", len(data)), zap.Error(err))
		return DefaultState(), HydrateFallback, nil
	}
	obj, err := env.Object()
	if err != nil {
		s.logger.Warn("snapshot state unreadable, using defaults", zap.Int("version", env.Version), zap.Error(err))
		return DefaultState(), HydrateFallback, nil
	}
	migrated, err := Migrate(env.Version, obj)
	if err != nil {
		s.logger.Warn("snapshot migration failed, using defaults", zap.Int("version", env.Version), zap.Error(err))
		return DefaultState(), HydrateFallback, nil
	}

	var p persisted
	if err := decodeObject(migrated, &p); err != nil {
		s.logger.Warn("snapshot does not fit current schema, using defaults", zap.Int("version", env.Version), zap.Error(err))
		return DefaultState(), HydrateFallback, nil
	}

	state := restore(p)
	if state.Token != "" && !auth.SessionValid(state.Token, s.clock.Now()) {
		s.logger.Info("stored session expired, signing out")
		state.User = nil
		state.Token = ""
		state.Authenticated = false
	}

	outcome := HydrateRestored
	if env.Version < SchemaVersion {
		outcome = HydrateMigrated
	}
	return state, outcome, nil
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Phase returns the lifecycle stage.
func (s *Store) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Metrics returns the store instruments.
func (s *Store) Metrics() *Metrics {
	return s.metrics
}

// Subscribe registers fn to receive the previous and the new state after
// every committed action. The returned function removes it.
func (s *Store) Subscribe(fn func(prev, next State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	listeners := make([]listener, 0, len(s.listeners)+1)
	listeners = append(listeners, s.listeners...)
	s.listeners = append(listeners, listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *Store) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listeners := make([]listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		if l.id != id {
			listeners = append(listeners, l)
		}
	}
	s.listeners = listeners
}

// Batch runs fn against a transaction. The mutations it makes are committed
// together with one snapshot write and one round of notifications. If fn
// returns an error nothing is committed.
func (s *Store) Batch(fn func(*Tx) error) error {
	return s.update("batch", fn)
}

// Teardown writes a final snapshot and closes the store. Later actions
// return ErrClosed. Calling Teardown again is a no-op.
func (s *Store) Teardown(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseClosed
	final := s.state
	s.listeners = nil
	s.mu.Unlock()

	s.persist(ctx, final)
	s.logger.Info("store closed")
	return ctx.Err()
}

func (s *Store) update(action string, fn func(*Tx) error) error {
	s.persistMu.Lock()

	s.mu.Lock()
	if s.phase == PhaseClosed {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return ErrClosed
	}
	tx := &Tx{state: s.state, now: s.clock.Now()}
	if err := fn(tx); err != nil {
		s.mu.Unlock()
		s.persistMu.Unlock()
		s.metrics.Rejected.WithLabelValues(action).Inc()
		s.logger.Debug("action rejected", zap.String("action", action), zap.Error(err))
		return err
	}
	if !tx.changed {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return nil
	}
	prev := s.state
	s.state = tx.state
	s.phase = PhaseLive
	next := s.state
	listeners := s.listeners
	s.mu.Unlock()

	if tx.dirty {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		s.persist(ctx, next)
		cancel()
	}
	s.notifyMu.Lock()
	s.pending = append(s.pending, notification{prev: prev, next: next, listeners: listeners})
	s.notifyMu.Unlock()
	s.persistMu.Unlock()

	s.metrics.Actions.WithLabelValues(action).Inc()
	s.deliver()
	return nil
}

// deliver drains the notification queue unless another goroutine, or an
// outer frame of this one, is already draining it. An action dispatched from
// a listener is therefore delivered after the transition that triggered it.
func (s *Store) deliver() {
	s.notifyMu.Lock()
	if s.delivering {
		s.notifyMu.Unlock()
		return
	}
	s.delivering = true
	s.notifyMu.Unlock()

	for {
		s.notifyMu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			s.notifyMu.Unlock()
			return
		}
		n := s.pending[0]
		s.pending[0] = notification{}
		s.pending = s.pending[1:]
		s.notifyMu.Unlock()

		for _, l := range n.listeners {
			l.fn(n.prev, n.next)
		}
	}
}

// persist writes the capped projection of state. Failures are logged and
// counted, never returned: the in-memory state stays authoritative.
func (s *Store) persist(ctx context.Context, state State) {
	start := time.Now()
	defer func() {
		s.metrics.PersistDuration.Observe(time.Since(start).Seconds())
	}()

	data, err := snapshot.Encode(SchemaVersion, project(state))
	if err != nil {
		s.metrics.PersistFailures.WithLabelValues("encode").Inc()
		s.logger.Error("snapshot encode failed, persist skipped", zap.Error(err))
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.metrics.PersistFailures.WithLabelValues(failureReason(err)).Inc()
		s.logger.Warn("snapshot write failed, persist skipped",
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return
	}
	s.metrics.PersistWrites.Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, storage.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, storage.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}
