package store

import (
	"sync"
	"time"
)

// Clock hands out strictly increasing UTC timestamps so CreatedAt ordering
// is total within one process. Timestamps have microsecond resolution, the
// precision PostgreSQL stores.
type Clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}
