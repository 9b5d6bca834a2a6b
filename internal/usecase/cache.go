package usecase

import (
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

// RunningLister produces a fresh running-process list.
type RunningLister interface {
	ListRunning() ([]domain.ApplicationRecord, error)
}

// SnapshotCache serves the running-process list for up to ttl.
// The lock is held across a refresh so concurrent misses cause one scan.
type SnapshotCache struct {
	mu       sync.Mutex
	lister   RunningLister
	ttl      time.Duration
	now      func() time.Time
	snapshot *domain.ProcessSnapshot
}

// NewSnapshotCache creates a cache over lister.
func NewSnapshotCache(lister RunningLister, ttl time.Duration) *SnapshotCache {
	return NewSnapshotCacheWithClock(lister, ttl, time.Now)
}

// NewSnapshotCacheWithClock creates a cache with an injectable clock (for testing).
func NewSnapshotCacheWithClock(lister RunningLister, ttl time.Duration, now func() time.Time) *SnapshotCache {
	return &SnapshotCache{lister: lister, ttl: ttl, now: now}
}

// GetOrRefresh returns a copy of the cached snapshot while it is younger than
// the TTL, and otherwise rescans synchronously before returning.
// A failed rescan leaves the previous snapshot untouched.
func (c *SnapshotCache) GetOrRefresh() (domain.ProcessSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.snapshot != nil && now.Sub(c.snapshot.CapturedAt) < c.ttl {
		return copySnapshot(*c.snapshot), nil
	}

	records, err := c.lister.ListRunning()
	if err != nil {
		return domain.ProcessSnapshot{}, err
	}

	c.snapshot = &domain.ProcessSnapshot{Records: records, CapturedAt: now}
	return copySnapshot(*c.snapshot), nil
}

// Invalidate forces the next GetOrRefresh to rescan.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
}

func copySnapshot(s domain.ProcessSnapshot) domain.ProcessSnapshot {
	records := make([]domain.ApplicationRecord, len(s.Records))
	copy(records, s.Records)
	return domain.ProcessSnapshot{Records: records, CapturedAt: s.CapturedAt}
}
