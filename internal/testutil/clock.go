// Package testutil holds deterministic stand-ins for tests: a resettable
// logical clock, fixed run IDs, and a discard logger.
package testutil

import (
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/picoparse/internal/trace"
)

var _ trace.Sequencer = (*DeterministicClock)(nil)

// DeterministicClock is a resettable logical clock for tests.
//
// Unlike trace.Clock it can be rewound, so the same scenario can run several
// times with identical seq values in its trace.
//
// Safe for concurrent use.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock starting at 0.
// The first call to Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock to 0.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
