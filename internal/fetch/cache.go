package fetch

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Cache is an in-memory store of raw raster bytes keyed by URL.
// When full, the oldest entry is evicted.
type Cache struct {
	mu      sync.Mutex
	data    *orderedmap.OrderedMap[string, []byte]
	entries int

	// Stats
	hits   int
	misses int
}

// NewCache creates a cache holding up to entries items. Zero disables
// caching.
func NewCache(entries int) *Cache {
	return &Cache{
		data:    orderedmap.New[string, []byte](),
		entries: entries,
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data.Get(key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries <= 0 {
		return
	}
	c.data.Set(key, data)
	for c.data.Len() > c.entries {
		oldest := c.data.Oldest()
		c.data.Delete(oldest.Key)
	}
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Len()
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = orderedmap.New[string, []byte]()
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
