// Package cachemanager holds content-addressed result caches. Entries expire
// after a fixed TTL; hit and miss counts are kept for the debug log.
package cachemanager

import (
	"time"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Cache is a typed key/value store whose entries expire.
type Cache[K ~string, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(keys ...K)
	Flush()
	Stats() Stats
}

// Stats counts lookups since the cache was created or last flushed.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// HitRate is Hits over all lookups, or zero before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
