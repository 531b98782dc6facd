package timex

import (
	"sync"
	"time"
)

// Clock abstracts the wall clock.
type Clock interface {
	Now() time.Time
}

// StrictClock returns wall-clock instants truncated to a resolution and
// guarantees that every call returns an instant strictly after the
// previous one. When the wall clock has not advanced by at least one
// resolution step, the previous instant plus one step is returned.
type StrictClock struct {
	mu         sync.Mutex
	resolution time.Duration
	last       time.Time
	now        func() time.Time
}

// NewStrictClock creates a StrictClock. A non-positive resolution means
// nanosecond resolution.
func NewStrictClock(resolution time.Duration) *StrictClock {
	if resolution <= 0 {
		resolution = time.Nanosecond
	}
	return &StrictClock{resolution: resolution, now: time.Now}
}

func (c *StrictClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(c.resolution)
	if !t.After(c.last) {
		t = c.last.Add(c.resolution)
	}
	c.last = t
	return t
}
