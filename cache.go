package stagecraft

import (
	"maps"
	"slices"
)

// BaseCache stores loaded assets of one kind by key. It emits add(cache, key,
// value) and remove(cache, key, value).
type BaseCache struct {
	entries map[string]any
	events  *EventEmitter
}

// NewBaseCache creates an empty cache.
func NewBaseCache() *BaseCache {
	return &BaseCache{
		entries: make(map[string]any),
		events:  NewEventEmitter(),
	}
}

// Events returns the cache's event bus.
func (c *BaseCache) Events() *EventEmitter { return c.events }

// Add stores value under key, replacing any previous entry.
func (c *BaseCache) Add(key string, value any) *BaseCache {
	c.entries[key] = value
	c.events.Emit(EventCacheAdd, c, key, value)
	return c
}

// Has reports whether key is cached.
func (c *BaseCache) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Exists is an alias of Has.
func (c *BaseCache) Exists(key string) bool { return c.Has(key) }

// Get returns the value cached under key, or nil.
func (c *BaseCache) Get(key string) any {
	return c.entries[key]
}

// Remove drops key.
func (c *BaseCache) Remove(key string) *BaseCache {
	v, ok := c.entries[key]
	if !ok {
		return c
	}
	delete(c.entries, key)
	c.events.Emit(EventCacheRemove, c, key, v)
	return c
}

// GetKeys returns the cached keys in order.
func (c *BaseCache) GetKeys() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// Destroy drops every entry and listener.
func (c *BaseCache) Destroy() {
	clear(c.entries)
	c.events.RemoveAllListeners()
}

// CacheManager holds the Game's non-texture asset caches.
type CacheManager struct {
	JSON   *BaseCache
	XML    *BaseCache
	YAML   *BaseCache
	Text   *BaseCache
	Binary *BaseCache
	Audio  *BaseCache

	custom map[string]*BaseCache
}

// NewCacheManager creates the built-in caches.
func NewCacheManager() *CacheManager {
	return &CacheManager{
		JSON:   NewBaseCache(),
		XML:    NewBaseCache(),
		YAML:   NewBaseCache(),
		Text:   NewBaseCache(),
		Binary: NewBaseCache(),
		Audio:  NewBaseCache(),
		custom: make(map[string]*BaseCache),
	}
}

// AddCustom returns the custom cache named key, creating it on first use.
func (m *CacheManager) AddCustom(key string) *BaseCache {
	if c, ok := m.custom[key]; ok {
		return c
	}
	c := NewBaseCache()
	m.custom[key] = c
	return c
}

// Custom returns a custom cache or nil.
func (m *CacheManager) Custom(key string) *BaseCache {
	return m.custom[key]
}

// Destroy empties every cache.
func (m *CacheManager) Destroy() {
	for _, c := range []*BaseCache{m.JSON, m.XML, m.YAML, m.Text, m.Binary, m.Audio} {
		c.Destroy()
	}
	for _, c := range m.custom {
		c.Destroy()
	}
	clear(m.custom)
}
