package application

import (
	"sync"
	"time"
)

// unlockCache tracks which viewers have presented a valid access secret for
// which records. Grants expire after a TTL so an unlocked description does
// not stay readable indefinitely.
type unlockCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	grants     map[unlockKey]time.Time
}

type unlockKey struct {
	viewerID string
	recordID string
}

func newUnlockCache(ttl time.Duration, maxEntries int, now func() time.Time) *unlockCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &unlockCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		grants:     make(map[unlockKey]time.Time),
	}
}

// Unlocked reports whether the viewer holds an unexpired grant for the record.
func (c *unlockCache) Unlocked(viewerID, recordID string) bool {
	if c == nil {
		return false
	}
	key := unlockKey{viewerID: viewerID, recordID: recordID}

	c.mu.RLock()
	expiresAt, ok := c.grants[key]
	c.mu.RUnlock()
	if !ok {
		return false
	}
	if c.now().After(expiresAt) {
		c.mu.Lock()
		delete(c.grants, key)
		c.mu.Unlock()
		return false
	}
	return true
}

// Grant records a successful access-secret check for the viewer and record.
func (c *unlockCache) Grant(viewerID, recordID string) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.grants) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.grants[unlockKey{viewerID: viewerID, recordID: recordID}] = expiry
}

// RevokeRecord drops every grant for the record, for all viewers. Called
// when a record is deleted or its access secret changes.
func (c *unlockCache) RevokeRecord(recordID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	for key := range c.grants {
		if key.recordID == recordID {
			delete(c.grants, key)
		}
	}
	c.mu.Unlock()
}

func (c *unlockCache) cleanupLocked() {
	now := c.now()
	for key, expiresAt := range c.grants {
		if now.After(expiresAt) {
			delete(c.grants, key)
		}
	}
}

func (c *unlockCache) evictOneLocked() {
	for key := range c.grants {
		delete(c.grants, key)
		return
	}
}
