package ledger

import (
	"sync/atomic"
	"time"
)

// Clock issues record keys. Each call to Next must return a value strictly
// greater than every value it returned before.
type Clock interface {
	Next() int64
}

// MonotonicClock stamps records with wall-clock milliseconds, bumped by one
// whenever the wall clock has not advanced past the previous stamp. Two calls
// inside the same millisecond therefore still get distinct keys.
type MonotonicClock struct {
	last atomic.Int64
	now  func() time.Time
}

// NewMonotonicClock creates a clock reading time.Now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now}
}

// Next returns max(now in ms, last+1).
func (c *MonotonicClock) Next() int64 {
	for {
		prev := c.last.Load()
		next := c.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// Observe moves the clock forward so that later stamps exceed v.
// Used after loading a snapshot whose keys may be ahead of the wall clock.
func (c *MonotonicClock) Observe(v int64) {
	for {
		prev := c.last.Load()
		if v <= prev || c.last.CompareAndSwap(prev, v) {
			return
		}
	}
}

// observer is implemented by clocks that can be advanced past loaded keys.
type observer interface {
	Observe(v int64)
}
