// Package cache provides a TTL cache for per-conversation extraction
// results. Entries are invalidated lazily on read.
package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Key identifies one extraction result for one conversation.
type Key struct {
	ConversationID uuid.UUID
	Kind           string
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[Key]entry
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[Key]entry),
	}
}

// Get returns the cached value for key, or false if the entry is
// missing or expired. Expired entries are deleted on access.
func (c *Cache) Get(key Key) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	return e.value, true
}

// Put stores value under key with the cache's TTL.
func (c *Cache) Put(key Key, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate removes all entries for a conversation.
func (c *Cache) Invalidate(conversationID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.ConversationID == conversationID {
			delete(c.entries, key)
		}
	}
}
