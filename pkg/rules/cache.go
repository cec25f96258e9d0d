package rules

import "sync"

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

type mapCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMapCache returns an unbounded, concurrency-safe ProgramCache.
func NewMapCache() ProgramCache {
	return &mapCache{programs: map[string]any{}}
}

func (c *mapCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.programs[key]
	return v, ok
}

func (c *mapCache) Set(key string, value any) {
	c.mu.Lock()
	c.programs[key] = value
	c.mu.Unlock()
}
