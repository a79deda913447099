package feeds

import (
	"sync"
	"time"
)

// Snapshot is the published result of one refresh cycle: the ranked arrival
// list plus freshness state. Immutable once published.
type Snapshot struct {
	Arrivals      []Arrival `json:"arrivals"`
	LastSuccessAt time.Time `json:"last_success_at"`
	Stale         bool      `json:"stale"`
	Err           ErrorKind `json:"error,omitempty"`
}

// SnapshotCache is the single shared slot between the refresh loop and the
// display readers: one writer, any number of readers, replaced wholesale on
// each publish so a reader never sees a half-applied cycle.
type SnapshotCache struct {
	mu  sync.RWMutex
	cur Snapshot
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{}
}

func (c *SnapshotCache) Publish(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = snap
}

// Current returns the latest snapshot. Never blocks on the network; the
// fetch cycle holds no lock while waiting on I/O.
func (c *SnapshotCache) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur
}
