package grading

import "sync"

// Key identifies a semantic comparison. It is order sensitive:
// {a, b} and {b, a} are different entries.
type Key struct {
	Student   string
	Reference string
}

// SimilarityCache stores similarity scores that were already computed.
type SimilarityCache interface {
	Get(k Key) (float64, bool)
	Put(k Key, sim float64)
	Len() int
}

// MemoryCache is an unbounded in-memory SimilarityCache. Entries are never
// evicted and live as long as the cache does.
type MemoryCache struct {
	mu sync.RWMutex
	m  map[Key]float64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[Key]float64)}
}

func (c *MemoryCache) Get(k Key) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[k]
	return v, ok
}

func (c *MemoryCache) Put(k Key, sim float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = sim
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
