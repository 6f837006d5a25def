// Package cache is the key→entry result cache: a synchronous in-memory
// layer in front of a durable store, with TTL expiry and a per-key
// serialized read-modify-write used by background enrichment.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

//go:generate mockgen -source=cache.go -destination=../mocks/cache/mock_store.go -package=mock_cache

// Entry is one cached value with its write time and TTL.
type Entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	WrittenAt time.Time       `json:"writtenAt"`
	TTL       time.Duration   `json:"ttl"`
}

// Expired reports whether the entry's TTL has elapsed at now.
func (e Entry) Expired(now time.Time) bool {
	return e.TTL > 0 && now.After(e.WrittenAt.Add(e.TTL))
}

// Store is the durable layer behind the in-memory cache. Get returns
// (nil, nil) when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Stats summarizes the in-memory cache content.
type Stats struct {
	Entries int
	Expired int
}

// Cache combines an in-memory map with a durable Store. Reads prefer
// memory; writes update memory synchronously and the store
// asynchronously, best effort.
type Cache struct {
	mu     sync.RWMutex
	memory map[string]Entry

	store      Store
	defaultTTL time.Duration

	// Serializes read-modify-write updates per key so concurrent
	// enrichment passes cannot lose each other's writes.
	keyMu    sync.Mutex
	keyLocks map[string]*sync.Mutex

	writes sync.WaitGroup
}

// New creates a cache over the given durable store. store may be nil
// for a memory-only cache.
func New(store Store, defaultTTL time.Duration) *Cache {
	return &Cache{
		memory:     make(map[string]Entry),
		store:      store,
		defaultTTL: defaultTTL,
		keyLocks:   make(map[string]*sync.Mutex),
	}
}

// ReadSync is the best-effort synchronous read: memory only, never the
// durable store.
func (c *Cache) ReadSync(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	entry, ok := c.memory[key]
	c.mu.RUnlock()
	if !ok || entry.Expired(time.Now()) {
		return nil, false
	}
	return entry.Value, true
}

// Read checks memory first and falls back to the durable store,
// promoting a durable hit into memory.
func (c *Cache) Read(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if value, ok := c.ReadSync(key); ok {
		return value, true, nil
	}
	if c.store == nil {
		return nil, false, nil
	}

	entry, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("store.Get > %w", err)
	}
	if entry == nil || entry.Expired(time.Now()) {
		return nil, false, nil
	}

	c.mu.Lock()
	c.memory[key] = *entry
	c.mu.Unlock()
	return entry.Value, true, nil
}

// Write stores the value under key. Memory is updated synchronously so
// a ReadSync issued right after Write observes the value; the durable
// write happens asynchronously and failures are logged, not returned.
func (c *Cache) Write(ctx context.Context, key string, value json.RawMessage) error {
	entry := Entry{
		Key:       key,
		Value:     value,
		WrittenAt: time.Now(),
		TTL:       c.defaultTTL,
	}

	c.mu.Lock()
	c.memory[key] = entry
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		// Detach from the caller's lifetime: the caller does not wait
		// for durability.
		ctx := context.WithoutCancel(ctx)
		if err := c.store.Put(ctx, entry); err != nil {
			slog.Default().Warn("durable cache write failed",
				"key", key,
				"error", err)
		}
	}()
	return nil
}

// writeSync is Write with a synchronous durable put. Used by Update so
// serialized per-key updates cannot reorder at the store.
func (c *Cache) writeSync(ctx context.Context, key string, value json.RawMessage) error {
	entry := Entry{
		Key:       key,
		Value:     value,
		WrittenAt: time.Now(),
		TTL:       c.defaultTTL,
	}

	c.mu.Lock()
	c.memory[key] = entry
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("store.Put > %w", err)
	}
	return nil
}

// Update applies fn to the current cached value (nil when absent) and
// writes the result back. Updates for the same key are serialized;
// updates for different keys proceed concurrently.
func (c *Cache) Update(ctx context.Context, key string, fn func(current json.RawMessage) (json.RawMessage, error)) error {
	lock := c.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	current, _, err := c.Read(ctx, key)
	if err != nil {
		return fmt.Errorf("c.Read > %w", err)
	}
	updated, err := fn(current)
	if err != nil {
		return fmt.Errorf("update fn > %w", err)
	}
	if err := c.writeSync(ctx, key, updated); err != nil {
		return fmt.Errorf("c.writeSync > %w", err)
	}
	return nil
}

// Invalidate removes the entry from memory and the durable store.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.memory, key)
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("store.Delete > %w", err)
	}
	return nil
}

// PurgeExpired evicts expired entries from memory and the durable
// store, returning how many were removed.
func (c *Cache) PurgeExpired(ctx context.Context) (int, error) {
	now := time.Now()
	purged := 0

	c.mu.Lock()
	for key, entry := range c.memory {
		if entry.Expired(now) {
			delete(c.memory, key)
			purged++
		}
	}
	c.mu.Unlock()

	if c.store == nil {
		return purged, nil
	}

	keys, err := c.store.Keys(ctx)
	if err != nil {
		return purged, fmt.Errorf("store.Keys > %w", err)
	}
	for _, key := range keys {
		entry, err := c.store.Get(ctx, key)
		if err != nil {
			return purged, fmt.Errorf("store.Get > %w", err)
		}
		if entry != nil && entry.Expired(now) {
			if err := c.store.Delete(ctx, key); err != nil {
				return purged, fmt.Errorf("store.Delete > %w", err)
			}
			purged++
		}
	}
	return purged, nil
}

// Stats counts entries across memory and the durable store. Keys
// present in both layers count once.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	now := time.Now()
	var stats Stats
	seen := make(map[string]bool)

	c.mu.RLock()
	for key, entry := range c.memory {
		seen[key] = true
		stats.Entries++
		if entry.Expired(now) {
			stats.Expired++
		}
	}
	c.mu.RUnlock()

	if c.store == nil {
		return stats, nil
	}
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return stats, fmt.Errorf("store.Keys > %w", err)
	}
	for _, key := range keys {
		if seen[key] {
			continue
		}
		entry, err := c.store.Get(ctx, key)
		if err != nil {
			return stats, fmt.Errorf("store.Get > %w", err)
		}
		if entry == nil {
			continue
		}
		stats.Entries++
		if entry.Expired(now) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Close waits for in-flight durable writes and closes the store.
func (c *Cache) Close() error {
	c.writes.Wait()
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *Cache) lockFor(key string) *sync.Mutex {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	lock, ok := c.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.keyLocks[key] = lock
	}
	return lock
}
