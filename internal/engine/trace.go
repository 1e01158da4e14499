package engine

// EventKind identifies what happened at a trace point.
type EventKind string

const (
	// EventEnter is emitted when a Desc-labelled parser starts.
	EventEnter EventKind = "enter"

	// EventLeave is emitted when a Desc-labelled parser succeeds.
	EventLeave EventKind = "leave"

	// EventFail is emitted when a Desc-labelled parser fails.
	EventFail EventKind = "fail"

	// EventCommit is emitted when Commit marks the innermost scope.
	EventCommit EventKind = "commit"

	// EventEscalate is emitted when Tri turns a Recoverable failure into a
	// Committed one.
	EventEscalate EventKind = "escalate"

	// EventBacktrack is emitted when the cursor is rewound.
	// Offset is where the cursor was, Target where it went.
	EventBacktrack EventKind = "backtrack"
)

// Event is a single trace point.
type Event struct {
	Kind   EventKind
	Label  string
	Offset int
	Target int
}

// Tracer observes engine events.
//
// Tracers are called synchronously from inside the parse and must not retain
// the State. The default tracer discards everything.
type Tracer interface {
	Trace(ev Event)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(ev Event)

// Trace implements Tracer.
func (f TracerFunc) Trace(ev Event) {
	f(ev)
}

type nopTracer struct{}

func (nopTracer) Trace(Event) {}
