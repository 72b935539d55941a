package cache

import (
	"encoding/json"
	"sync"
)

// Map is a concurrency-safe key-value store with JSON round-tripping, used
// to persist ingest state between runs.
type Map[K comparable, V any] struct {
	data map[K]*V
	sync.RWMutex
}

// NewMap creates an empty cache.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{data: make(map[K]*V)}
}

// Get retrieves a value by key.
func (c *Map[K, V]) Get(key K) (*V, bool) {
	c.RLock()
	defer c.RUnlock()
	v, ok := c.data[key]
	return v, ok
}

// Set stores a value under key.
func (c *Map[K, V]) Set(key K, value *V) {
	c.Lock()
	defer c.Unlock()
	c.data[key] = value
}

// Delete removes a key.
func (c *Map[K, V]) Delete(key K) {
	c.Lock()
	defer c.Unlock()
	delete(c.data, key)
}

// Keys returns all keys.
func (c *Map[K, V]) Keys() []K {
	c.RLock()
	defer c.RUnlock()
	keys := make([]K, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}

// Size returns the number of entries.
func (c *Map[K, V]) Size() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.data)
}

// Data serializes the cache content as JSON.
func (c *Map[K, V]) Data() ([]byte, error) {
	c.RLock()
	defer c.RUnlock()
	return json.Marshal(c.data)
}

// Load replaces the cache content from JSON data.
func (c *Map[K, V]) Load(data []byte) error {
	c.Lock()
	defer c.Unlock()
	next := make(map[K]*V)
	if err := json.Unmarshal(data, &next); err != nil {
		return err
	}
	c.data = next
	return nil
}
