package query

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

// FetchFunc loads the value for a cache key from the backend.
type FetchFunc func(ctx context.Context) (any, error)

// PatchFunc transforms a cached value. It must return a new value rather
// than mutating the old one in place: rollback restores saved values by
// reference, so anything handed out by the cache is treated as immutable.
type PatchFunc func(current any) any

type entry struct {
	value    any
	valid    bool
	stale    bool
	gen      uint64 // bumped by every invalidation
	inflight chan struct{}
	fetchErr error
}

// Cache is the process-wide keyed store backing every entity read. Reads are
// lazy (a key fetches only when asked), deduplicated (concurrent reads of
// one key share a single in-flight fetch) and stale-tolerant (invalidation
// marks a key stale; the next read re-fetches).
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	logger  *log.Logger
}

// NewCache creates an empty cache.
func NewCache(logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{entries: map[string]*entry{}, logger: logger}
}

func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// Get returns the cached value for key, fetching it when the key is empty or
// stale. Concurrent callers for the same key share one fetch. Fetch errors
// are returned but never cached.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	if key == "" {
		return nil, fmt.Errorf("cache key cannot be empty")
	}
	for {
		c.mu.Lock()
		e := c.entryLocked(key)
		if e.valid && !e.stale {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}
		if e.inflight != nil {
			ch := e.inflight
			c.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-ch:
			}
			c.mu.Lock()
			if e.fetchErr != nil {
				err := e.fetchErr
				c.mu.Unlock()
				return nil, err
			}
			if e.valid {
				v := e.value
				c.mu.Unlock()
				return v, nil
			}
			c.mu.Unlock()
			continue // invalidated between fetch and read; retry
		}
		ch := make(chan struct{})
		e.inflight = ch
		startGen := e.gen
		c.mu.Unlock()

		v, err := fetch(ctx)

		c.mu.Lock()
		if e.inflight == ch {
			e.inflight = nil
		}
		e.fetchErr = err
		if err == nil {
			e.value = v
			e.valid = true
			// An invalidation that raced the fetch keeps the key stale so
			// the next read fetches again; coarse invalidation must never
			// miss an update.
			e.stale = e.gen != startGen
		}
		c.mu.Unlock()
		close(ch)
		return v, err
	}
}

// Peek returns the cached value without fetching. ok is false for keys that
// are absent or were never successfully fetched; stale values are returned
// (stale reads are tolerated until the next invalidating event).
func (c *Cache) Peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.valid {
		return nil, false
	}
	return e.value, true
}

// Set stores a fresh value for key, clearing any stale mark.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	e.value = value
	e.valid = true
	e.stale = false
	e.fetchErr = nil
}

// Invalidate marks key stale. The value stays readable through Peek until
// the next Get re-fetches it.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.stale = true
		e.gen++
	}
}

// InvalidateType marks stale every entry of an entity type: the bare list
// key plus every filtered variant. Backend events carry no filter
// information, so type-level invalidation is what the registry uses.
func (c *Cache) InvalidateType(entityType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := entityType + "?"
	for key, e := range c.entries {
		if key == entityType || strings.HasPrefix(key, prefix) {
			e.stale = true
			e.gen++
		}
	}
}

// Patch applies fn to the cached value when one exists. Keys that were never
// fetched are left untouched: there is nothing on screen to patch.
func (c *Cache) Patch(key string, fn PatchFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.valid {
		return
	}
	e.value = fn(e.value)
}

// snapshot captures one key's state for rollback.
type snapshot struct {
	value  any
	valid  bool
	stale  bool
	absent bool
}

// Tx captures pre-mutation snapshots of a set of keys so an optimistic
// update can be rolled back to exactly the state it found. Commit discards
// the snapshots; Rollback restores them wholesale, never a partial merge.
type Tx struct {
	cache *Cache
	saved map[string]snapshot
	done  bool
}

// Begin snapshots the given keys.
func (c *Cache) Begin(keys ...string) *Tx {
	c.mu.Lock()
	defer c.mu.Unlock()
	tx := &Tx{cache: c, saved: make(map[string]snapshot, len(keys))}
	for _, key := range keys {
		e, ok := c.entries[key]
		if !ok {
			tx.saved[key] = snapshot{absent: true}
			continue
		}
		tx.saved[key] = snapshot{value: e.value, valid: e.valid, stale: e.stale}
	}
	return tx
}

// Commit keeps the optimistic state.
func (tx *Tx) Commit() {
	tx.done = true
}

// Rollback restores every snapshotted key. Calling Rollback after Commit, or
// twice, is a no-op.
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.cache.mu.Lock()
	defer tx.cache.mu.Unlock()
	for key, snap := range tx.saved {
		if snap.absent {
			delete(tx.cache.entries, key)
			continue
		}
		e := tx.cache.entryLocked(key)
		e.value = snap.value
		e.valid = snap.valid
		e.stale = snap.stale
	}
}
