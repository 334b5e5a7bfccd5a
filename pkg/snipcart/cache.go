package snipcart

import (
	"context"
	"sync"
	"time"
)

// Cache is the response cache consumed by the API client. Entries carry a
// TTL and a tag set so a whole family of keys can be swept in one call.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value stored under key, or ErrCacheMiss when the key
	// is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with the given TTL and tags.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error

	// InvalidateTag removes every entry carrying the given tag.
	InvalidateTag(ctx context.Context, tag string) error
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
	tags      []string
}

// MemoryCache is an in-process Cache backed by a map. It is the default
// store when no Redis URL is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	byTag   map[string]map[string]struct{}

	hits   uint64
	misses uint64
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		byTag:   make(map[string]map[string]struct{}),
	}
}

// Get returns the value stored under key, or ErrCacheMiss.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		c.misses++
		if ok {
			c.removeLocked(key, entry)
		}
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return entry.value, nil
}

// Set stores value under key with the given TTL and tags.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.removeLocked(key, old)
	}

	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
		tags:      tags,
	}
	for _, tag := range tags {
		if c.byTag[tag] == nil {
			c.byTag[tag] = make(map[string]struct{})
		}
		c.byTag[tag][key] = struct{}{}
	}
	return nil
}

// InvalidateTag removes every entry carrying the given tag.
func (c *MemoryCache) InvalidateTag(_ context.Context, tag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.byTag[tag] {
		if entry, ok := c.entries[key]; ok {
			c.removeLocked(key, entry)
		}
	}
	delete(c.byTag, tag)
	return nil
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since creation.
func (c *MemoryCache) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *MemoryCache) removeLocked(key string, entry memoryEntry) {
	delete(c.entries, key)
	for _, tag := range entry.tags {
		if keys, ok := c.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
}
