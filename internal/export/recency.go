package export

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// DefaultRecentWindow is how long a write counts as "just changed".
const DefaultRecentWindow = 4 * time.Second

type recentEntry struct {
	hash string
	at   time.Time
}

// RecencyCache remembers the hash and time of the last write per path.
// It is advisory: nothing in it affects what gets written. It grows with
// the number of distinct paths and is emptied with Forget or Reset.
type RecencyCache struct {
	mu      sync.Mutex
	entries map[string]recentEntry
	window  time.Duration
	now     func() time.Time
}

// NewRecencyCache returns a cache with the given window (DefaultRecentWindow
// when window <= 0).
func NewRecencyCache(window time.Duration) *RecencyCache {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	return &RecencyCache{
		entries: make(map[string]recentEntry),
		window:  window,
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (c *RecencyCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Hash returns the hex sha256 of content.
func Hash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Mark records that content was just written to path.
func (c *RecencyCache) Mark(path string, content []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = recentEntry{hash: Hash(content), at: c.now()}
}

// JustChanged reports whether path was written within the window.
func (c *RecencyCache) JustChanged(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	if !ok {
		return false
	}
	return c.now().Sub(e.at) < c.window
}

// LastHash returns the hash of the last content written to path.
func (c *RecencyCache) LastHash(path string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[path]
	return e.hash, ok
}

// Forget drops path from the cache.
func (c *RecencyCache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Reset empties the cache.
func (c *RecencyCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]recentEntry)
}

// Len returns the number of tracked paths.
func (c *RecencyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
