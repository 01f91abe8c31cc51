package testutil

import "sync"

// DeterministicClock issues record keys 1, 2, 3, ... so that tests and
// golden traces see the same keys on every run.
//
// Unlike ledger.MonotonicClock it ignores wall time and can be reset for reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a new deterministic clock starting at 0.
//
// The first call to Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{seq: 0}
}

// Next increments and returns the next key.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last issued key without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Observe advances the clock so the next key exceeds v.
// Lets a ledger reopened over saved records keep keys unique.
func (c *DeterministicClock) Observe(v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v > c.seq {
		c.seq = v
	}
}

// Reset resets the clock to 0.
//
// After Reset(), the next call to Next() returns 1.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
