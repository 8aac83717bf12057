package testutil

import (
	"sync"
	"time"

	"github.com/roach88/fieldsync/internal/clock"
)

// FixedClock is a settable wall clock for tests.
//
// It starts at a fixed instant and only moves when Set or Advance is called,
// which lets tests cross day boundaries deterministically.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ clock.Clock = (*FixedClock)(nil)

// NewFixedClock creates a clock at the given instant.
func NewFixedClock(now time.Time) *FixedClock {
	return &FixedClock{now: now}
}

// NewFixedClockAt parses a "2006-01-02 15:04:05" local timestamp.
// Panics on a malformed value (test misconfiguration).
func NewFixedClockAt(ts string) *FixedClock {
	t, err := time.ParseInLocation(clock.TimestampLayout, ts, time.Local)
	if err != nil {
		panic("FixedClock: " + err.Error())
	}
	return NewFixedClock(t)
}

// Now returns the current instant without moving the clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// NextDay moves the clock forward by one calendar day, keeping the time of day.
func (c *FixedClock) NextDay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, 1)
}
