package client

import (
	"strings"
	"sync"
)

// ReadCache кэш чтения, ключом служит имя запроса ("feed",
// "post:{id}", "profile:{userId}", "comments:{postId}").
// Менеджер мутаций пишет в него оптимистично, Replayer и Resolver
// перезаписывают подтвержденными сервером данными.
type ReadCache struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewReadCache создает пустой кэш чтения
func NewReadCache() *ReadCache {
	return &ReadCache{
		entries: make(map[string]any),
	}
}

// Get возвращает значение по ключу
func (c *ReadCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, ok := c.entries[key]
	return value, ok
}

// Set сохраняет значение по ключу
func (c *ReadCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
}

// Invalidate удаляет все ключи с указанным префиксом,
// возвращает число удаленных записей
func (c *ReadCache) Invalidate(keyPrefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, keyPrefix) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Len возвращает число записей в кэше
func (c *ReadCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
