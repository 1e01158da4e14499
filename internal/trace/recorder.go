// Package trace collects and renders engine trace events.
//
// The engine reports events through engine.Tracer. This package provides the
// tracers the tooling uses: Recorder keeps a seq-stamped copy of every event
// for storage and assertions, SlogTracer logs them, and Multi fans out to
// several tracers at once.
package trace

import (
	"log/slog"

	"github.com/roach88/picoparse/internal/engine"
)

// Record is one stored trace event.
type Record struct {
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"`
	Label  string `json:"label,omitempty"`
	Offset int    `json:"offset"`
	Target int    `json:"target,omitempty"`
}

// Recorder is an engine.Tracer that keeps every event in order.
// Not safe for concurrent use; use one Recorder per parse.
type Recorder struct {
	clock   Sequencer
	records []Record
}

// NewRecorder creates a recorder stamping records with seq numbers from
// clock. A nil clock gets a fresh Clock, so seq numbers start at 1.
func NewRecorder(clock Sequencer) *Recorder {
	if clock == nil {
		clock = NewClock()
	}
	return &Recorder{clock: clock}
}

// Trace implements engine.Tracer.
func (r *Recorder) Trace(ev engine.Event) {
	r.records = append(r.records, Record{
		Seq:    r.clock.Next(),
		Kind:   string(ev.Kind),
		Label:  ev.Label,
		Offset: ev.Offset,
		Target: ev.Target,
	})
}

// Records returns the recorded events in order.
func (r *Recorder) Records() []Record {
	return r.records
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	return len(r.records)
}

// Reset discards all records. The clock is not rewound.
func (r *Recorder) Reset() {
	r.records = nil
}

// SlogTracer logs every event at debug level.
type SlogTracer struct {
	logger *slog.Logger
}

// NewSlogTracer creates a tracer writing to logger. A nil logger uses
// slog.Default().
func NewSlogTracer(logger *slog.Logger) *SlogTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogTracer{logger: logger}
}

// Trace implements engine.Tracer.
func (t *SlogTracer) Trace(ev engine.Event) {
	attrs := []any{
		"kind", string(ev.Kind),
		"offset", ev.Offset,
	}
	if ev.Label != "" {
		attrs = append(attrs, "label", ev.Label)
	}
	if ev.Kind == engine.EventBacktrack {
		attrs = append(attrs, "target", ev.Target)
	}
	t.logger.Debug("parse event", attrs...)
}

// Multi returns a tracer that forwards each event to every non-nil tracer
// in order.
func Multi(tracers ...engine.Tracer) engine.Tracer {
	var live []engine.Tracer
	for _, t := range tracers {
		if t != nil {
			live = append(live, t)
		}
	}
	return engine.TracerFunc(func(ev engine.Event) {
		for _, t := range live {
			t.Trace(ev)
		}
	})
}

// Filter returns the records of the given kind.
func Filter(records []Record, kind engine.EventKind) []Record {
	var out []Record
	for _, r := range records {
		if r.Kind == string(kind) {
			out = append(out, r)
		}
	}
	return out
}
