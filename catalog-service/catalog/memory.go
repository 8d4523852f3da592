package catalog

import "sync"

// MemoryCache holds at most one catalog entry for the lifetime of the process.
type MemoryCache struct {
	mu      sync.RWMutex
	entry   CacheEntry
	present bool
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

// Get returns the stored entry without judging its freshness.
func (m *MemoryCache) Get() (CacheEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entry, m.present
}

func (m *MemoryCache) Set(entry CacheEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = entry
	m.present = true
}

func (m *MemoryCache) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = CacheEntry{}
	m.present = false
}
