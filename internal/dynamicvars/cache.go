// Package dynamicvars provides the personalization variables the voice
// platform requests at the start of a call.
package dynamicvars

import (
	"context"
	"maps"
	"sync"
	"time"
)

// Variables is the flat string map handed to the voice agent.
type Variables map[string]string

// Cache stores variable sets keyed by conversation identifier.
type Cache interface {
	Get(ctx context.Context, conversationID string) (Variables, bool, error)
	Set(ctx context.Context, conversationID string, vars Variables) error
}

type memoryEntry struct {
	vars      Variables
	expiresAt time.Time
}

// MemoryCache is a process-local Cache with lazy expiry.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, conversationID string) (Variables, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[conversationID]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, conversationID)
		return nil, false, nil
	}
	return maps.Clone(entry.vars), true, nil
}

func (c *MemoryCache) Set(_ context.Context, conversationID string, vars Variables) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[conversationID] = memoryEntry{
		vars:      maps.Clone(vars),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

var _ Cache = (*MemoryCache)(nil)
