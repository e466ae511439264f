package cachemanager

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/yedit/internal/log"
)

// Memory is a Cache backed by go-cache.
type Memory[K ~string, V any] struct {
	name   string
	store  *gocache.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ Cache[string, int] = (*Memory[string, int])(nil)

// NewMemory creates a cache whose entries live for ttl. A ttl of zero or
// less keeps entries until they are deleted. name labels log lines.
func NewMemory[K ~string, V any](name string, ttl, cleanup time.Duration) *Memory[K, V] {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Memory[K, V]{
		name:  name,
		store: gocache.New(ttl, cleanup),
	}
}

func (m *Memory[K, V]) Get(key K) (V, bool) {
	var zero V
	raw, ok := m.store.Get(string(key))
	if !ok {
		m.misses.Add(1)
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		// Only reachable if something wrote to store directly.
		log.Error(log.CatCache, "cached value has unexpected type", "cache", m.name, "key", key)
		m.store.Delete(string(key))
		m.misses.Add(1)
		return zero, false
	}
	m.hits.Add(1)
	return v, true
}

func (m *Memory[K, V]) Set(key K, value V) {
	m.store.SetDefault(string(key), value)
}

func (m *Memory[K, V]) Delete(keys ...K) {
	for _, k := range keys {
		m.store.Delete(string(k))
	}
}

// Flush drops every entry and resets the counters.
func (m *Memory[K, V]) Flush() {
	m.store.Flush()
	m.hits.Store(0)
	m.misses.Store(0)
	log.Debug(log.CatCache, "cache flushed", "cache", m.name)
}

// Stats reports counters and the entry count, which may include expired
// entries the janitor has not swept yet.
func (m *Memory[K, V]) Stats() Stats {
	return Stats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Entries: m.store.ItemCount(),
	}
}
