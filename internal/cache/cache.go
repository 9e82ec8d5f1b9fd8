// Package cache provides the concurrent memoization primitive shared by the
// mapping engine's descriptor, accessor, path and plan caches.
//
// Lookups take the read path only; first-time population synchronizes on a
// per-key flight so concurrent misses for the same key converge on a single
// computed value.
package cache

import (
	"sync"
)

// Policy decides whether a cache may admit another entry.
type Policy interface {
	// Admit reports whether an entry may be stored given the current size.
	Admit(size int) bool
}

type unbounded struct{}

func (unbounded) Admit(int) bool { return true }

// Unbounded returns the default policy: grow until explicitly cleared.
func Unbounded() Policy { return unbounded{} }

type capped struct{ limit int }

func (c capped) Admit(size int) bool { return size < c.limit }

// Capped returns a policy that stops admitting entries once the cache holds
// limit entries. Existing entries are still served.
func Capped(limit int) Policy { return capped{limit: limit} }

// flight is one in-progress computation. done closes once val and err are
// set.
type flight[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Cache is a concurrent compute-once map keyed by K.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	flights map[K]*flight[V]
	policy  Policy
}

// New creates an empty cache with the given admission policy.
// A nil policy means Unbounded.
func New[K comparable, V any](policy Policy) *Cache[K, V] {
	if policy == nil {
		policy = Unbounded()
	}
	return &Cache[K, V]{
		entries: make(map[K]V),
		flights: make(map[K]*flight[V]),
		policy:  policy,
	}
}

// Load returns the cached value for key, if present.
func (c *Cache[K, V]) Load(key K) (V, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	return v, ok
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. Concurrent first-time calls for the same key share one computation;
// distinct keys never share a flight. Compute errors are not cached.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	if v, ok := c.Load(key); ok {
		return v, nil
	}

	c.mu.Lock()
	if v, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	if f, ok := c.flights[key]; ok {
		c.mu.Unlock()
		<-f.done
		if f.err != nil {
			var zero V
			return zero, f.err
		}
		return f.val, nil
	}
	f := &flight[V]{done: make(chan struct{})}
	c.flights[key] = f
	c.mu.Unlock()

	f.val, f.err = compute()

	c.mu.Lock()
	delete(c.flights, key)
	if f.err == nil && c.policy.Admit(len(c.entries)) {
		c.entries[key] = f.val
	}
	c.mu.Unlock()
	close(f.done)

	if f.err != nil {
		var zero V
		return zero, f.err
	}
	return f.val, nil
}

// Len returns the number of stored entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops all stored entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[K]V)
	c.mu.Unlock()
}

// store unconditionally stores a value, subject to the admission policy.
func (c *Cache[K, V]) store(key K, value V) {
	c.mu.Lock()
	if _, ok := c.entries[key]; ok || c.policy.Admit(len(c.entries)) {
		c.entries[key] = value
	}
	c.mu.Unlock()
}
