// Package cache holds generated payloads in a bounded, expiring, process-local cache.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pathforge/pathforge/pkg/models"
)

const (
	// DefaultMaxEntries is the default number of live entries
	DefaultMaxEntries = 100
	// DefaultTTL is the default entry lifetime
	DefaultTTL = time.Hour
)

// Stats is a snapshot of cache counters
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64 // Entries dropped for capacity or expiry
	Entries   int
}

// GenerationCache maps request fingerprints to generated payloads.
// Past capacity the least recently used entry is evicted; expired entries
// read as absent and are dropped. Safe for concurrent use.
type GenerationCache struct {
	lru *expirable.LRU[string, models.CacheEntry]
	ttl time.Duration

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache holding at most maxEntries for ttl each.
// Non-positive values select the defaults.
func New(maxEntries int, ttl time.Duration) *GenerationCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &GenerationCache{ttl: ttl}
	c.lru = expirable.NewLRU[string, models.CacheEntry](maxEntries, func(string, models.CacheEntry) {
		c.evictions.Add(1)
	}, ttl)
	return c
}

// Get returns a copy of the live entry stored under fingerprint
func (c *GenerationCache) Get(fingerprint string) (models.CacheEntry, bool) {
	entry, ok := c.lru.Get(fingerprint)
	if !ok || time.Since(entry.StoredAt) >= c.ttl {
		c.lru.Remove(fingerprint)
		c.misses.Add(1)
		return models.CacheEntry{}, false
	}
	c.hits.Add(1)
	return entry.Clone(), true
}

// Put stores a copy of entry under fingerprint. The last writer wins.
func (c *GenerationCache) Put(fingerprint string, entry models.CacheEntry) {
	entry = entry.Clone()
	entry.Fingerprint = fingerprint
	entry.StoredAt = time.Now()
	c.lru.Add(fingerprint, entry)
}

// Len returns the number of stored entries, including any not yet purged
func (c *GenerationCache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry
func (c *GenerationCache) Purge() {
	c.lru.Purge()
}

// Stats returns current counters
func (c *GenerationCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.lru.Len(),
	}
}
