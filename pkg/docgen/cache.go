package docgen

import "sync"

// templateCache memoizes resolved template bytes per source. Entries are
// never invalidated; template changes require a process restart, which
// matches how the templates are deployed.
type templateCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func newTemplateCache() *templateCache {
	return &templateCache{entries: make(map[string][]byte)}
}

func (c *templateCache) get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	// Callers parse and mutate; hand out a copy.
	return append([]byte(nil), data...), true
}

func (c *templateCache) put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]byte(nil), data...)
}
