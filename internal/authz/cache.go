package authz

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultCacheSize = 4096

// ResolutionCache holds resolved permission snapshots keyed by user id.
// Entries stay valid until invalidated by a mutation affecting the user's
// group set or those groups' grants; the TTL is a backstop for invalidations
// missed by out-of-band writes (e.g. a second instance sharing the database).
type ResolutionCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
}

type cacheEntry struct {
	snap    *Snapshot
	expires time.Time
}

// NewResolutionCache creates a cache with the given capacity and TTL.
// size <= 0 uses a default; ttl <= 0 disables expiry.
func NewResolutionCache(size int, ttl time.Duration) (*ResolutionCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &ResolutionCache{entries: entries, ttl: ttl}, nil
}

func (c *ResolutionCache) Get(userID string) (*Snapshot, bool) {
	e, ok := c.entries.Get(userID)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Now().After(e.expires) {
		c.entries.Remove(userID)
		return nil, false
	}
	return e.snap, true
}

func (c *ResolutionCache) Add(userID string, snap *Snapshot) {
	e := cacheEntry{snap: snap}
	if c.ttl > 0 {
		e.expires = time.Now().Add(c.ttl)
	}
	c.entries.Add(userID, e)
}

func (c *ResolutionCache) Remove(userID string) {
	c.entries.Remove(userID)
}

// Purge drops every entry; used when a bulk mutation touches many groups.
func (c *ResolutionCache) Purge() {
	c.entries.Purge()
}
