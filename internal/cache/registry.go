package cache

import "sync"

// Clearable is the view of a cache the registry needs for management
// operations.
type Clearable interface {
	Len() int
	Clear()
}

// Registry aggregates named caches so the facade can expose per-category
// statistics and a single clear operation.
type Registry struct {
	mu     sync.Mutex
	caches map[string]Clearable
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{caches: make(map[string]Clearable)}
}

// Register adds a cache under a category name. Re-registering a name
// replaces the previous cache.
func (r *Registry) Register(name string, c Clearable) {
	r.mu.Lock()
	r.caches[name] = c
	r.mu.Unlock()
}

// Stats returns the entry count per registered cache category.
func (r *Registry) Stats() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := make(map[string]int, len(r.caches))
	for name, c := range r.caches {
		stats[name] = c.Len()
	}
	return stats
}

// Clear clears every registered cache.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.caches {
		c.Clear()
	}
}
