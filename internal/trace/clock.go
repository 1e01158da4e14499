package trace

import "sync/atomic"

// Sequencer hands out strictly increasing sequence numbers.
// Clock implements it; tests may substitute testutil.DeterministicClock.
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock.
//
// Trace records and stored runs are stamped with seq numbers from a Clock
// rather than wall-clock time, so a replayed parse produces byte-identical
// traces.
//
// Thread-safety: Clock is safe for concurrent use. A single parse only ever
// calls it from one goroutine, but the CLI shares one Clock across runs.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at start.
// Used to resume numbering after the last run recorded in a store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
