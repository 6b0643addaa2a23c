package memo

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Keyed caches one derived value per key, e.g. one filtered view per search
// query. Entries expire after the TTL and the least recently used entries are
// evicted beyond the capacity.
type Keyed[K comparable, V any] struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[K, V]
}

// Stats summarizes cache effectiveness.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Items     int
}

// NewKeyed returns an empty cache. A zero ttl keeps entries until they are
// evicted or invalidated; a zero capacity means unbounded.
func NewKeyed[K comparable, V any](ttl time.Duration, capacity uint64) *Keyed[K, V] {
	opts := []ttlcache.Option[K, V]{ttlcache.WithTTL[K, V](ttl)}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[K, V](capacity))
	}
	return &Keyed[K, V]{cache: ttlcache.New[K, V](opts...)}
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss.
func (k *Keyed[K, V]) GetOrCompute(key K, compute func() V) V {
	k.mu.Lock()
	defer k.mu.Unlock()
	if item := k.cache.Get(key); item != nil {
		return item.Value()
	}
	value := compute()
	k.cache.Set(key, value, ttlcache.DefaultTTL)
	return value
}

// Invalidate drops every entry.
func (k *Keyed[K, V]) Invalidate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.cache.DeleteAll()
}

// Len returns the number of cached entries.
func (k *Keyed[K, V]) Len() int {
	return k.cache.Len()
}

// Stats returns hit/miss counters.
func (k *Keyed[K, V]) Stats() Stats {
	m := k.cache.Metrics()
	return Stats{
		Hits:      m.Hits,
		Misses:    m.Misses,
		Evictions: m.Evictions,
		Items:     k.cache.Len(),
	}
}

// Close drops every entry.
func (k *Keyed[K, V]) Close() {
	k.Invalidate()
}
