package facematch

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type tempFaceEntry struct {
	embedding []float32 // raw, as submitted
	createdAt time.Time
}

// TempFaceCache holds query embeddings awaiting search, keyed by random UUIDs.
// One mutex guards the map; it is never held while scoring.
type TempFaceCache struct {
	mu      sync.Mutex
	entries map[string]tempFaceEntry
	now     func() time.Time
}

// NewTempFaceCache creates an empty cache.
func NewTempFaceCache() *TempFaceCache {
	return &TempFaceCache{
		entries: make(map[string]tempFaceEntry),
		now:     time.Now,
	}
}

// Put stores a copy of embedding and returns its key.
func (c *TempFaceCache) Put(embedding []float32) string {
	key := uuid.NewString()
	entry := tempFaceEntry{
		embedding: slices.Clone(embedding),
		createdAt: c.now(),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return key
}

// Get returns a copy of the embedding stored under key.
func (c *TempFaceCache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	return slices.Clone(entry.embedding), true
}

// PurgeExpired removes every entry at least ttl old and returns how many were removed.
func (c *TempFaceCache) PurgeExpired(ttl time.Duration) int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	purged := 0
	for key, entry := range c.entries {
		if now.Sub(entry.createdAt) >= ttl {
			delete(c.entries, key)
			purged++
		}
	}
	return purged
}

// Len returns the number of cached entries.
func (c *TempFaceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
