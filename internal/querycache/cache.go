// Package querycache keeps a client-side cache of fetched entities
// consistent with the server through an optimistic-update protocol:
// mutations cancel in-flight refetches for the keys they touch, snapshot
// the cached values, apply their expected effect locally, and after the
// network call settles either reconcile (success) or restore the snapshot
// (failure), invalidating the keys either way so the next read converges
// on server truth.
package querycache

import (
	"context"
	"fmt"
	"sync"
)

// Key addresses one cached value, either a collection or a single entity.
type Key string

// TodoListKey is the collection key for the todo list.
const TodoListKey Key = "todos/list"

// TodoDetailKey is the detail key for a single todo.
func TodoDetailKey(id uint) Key {
	return Key(fmt.Sprintf("todos/detail/%d", id))
}

type entry struct {
	value any
	stale bool
}

type refetch struct {
	gen    uint64
	cancel context.CancelFunc
}

// Cache is a keyed cache with staleness tracking and cancellable refetches.
// It is an injected service object: one instance per client session, shared
// by every component that reads or mutates todos.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]entry
	inflight map[Key]refetch
	nextGen  uint64
}

func New() *Cache {
	return &Cache{
		entries:  make(map[Key]entry),
		inflight: make(map[Key]refetch),
	}
}

// Lookup returns the cached value for key, whether one exists, and whether
// it has been invalidated since it was last set.
func (c *Cache) Lookup(key Key) (value any, ok bool, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.value, ok, e.stale
}

// Set stores a fresh value for key.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value}
}

// Drop removes the value for key entirely.
func (c *Cache) Drop(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Invalidate marks keys stale without discarding their values; the next
// read through the controller refetches them.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.stale = true
			c.entries[key] = e
		}
	}
}

// CancelRefetch aborts any in-flight refetch for the given keys. This is
// the pre-mutation barrier: a refetch started before an optimistic write
// must never land on top of it. Mutation requests are never cancelled.
func (c *Cache) CancelRefetch(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if rf, ok := c.inflight[key]; ok {
			rf.cancel()
			delete(c.inflight, key)
		}
	}
}

// BeginRefetch registers a refetch for key, cancelling any previous one,
// and returns the context to fetch under plus a generation token for
// FinishRefetch.
func (c *Cache) BeginRefetch(ctx context.Context, key Key) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rf, ok := c.inflight[key]; ok {
		rf.cancel()
	}

	c.nextGen++
	gen := c.nextGen
	rctx, cancel := context.WithCancel(ctx)
	c.inflight[key] = refetch{gen: gen, cancel: cancel}
	return rctx, gen
}

// FinishRefetch stores the fetched value if this refetch is still the
// current one for key. A refetch that was cancelled or superseded reports
// false and its response is discarded.
func (c *Cache) FinishRefetch(key Key, gen uint64, value any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	rf, ok := c.inflight[key]
	if !ok || rf.gen != gen {
		return false
	}
	rf.cancel()
	delete(c.inflight, key)
	c.entries[key] = entry{value: value}
	return true
}

// AbortRefetch deregisters a failed refetch without touching the cache.
func (c *Cache) AbortRefetch(key Key, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rf, ok := c.inflight[key]
	if !ok || rf.gen != gen {
		return
	}
	rf.cancel()
	delete(c.inflight, key)
}
