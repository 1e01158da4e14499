package engine

import "fmt"

// Parser is the single parser abstraction: a unit of work over the parse
// state producing a value or an error.
//
// Any function with this signature is a parser, so grammar productions are
// ordinary Go functions that call other parsers in sequence.
type Parser[T, V any] func(s *State[T]) (V, error)

// State is the mutable thread of control of one parse.
//
// It holds the live cursor and a stack of commit markers. The bottom marker
// belongs to the root scope; Tri pushes one marker per nested scope.
//
// Thread-safety: a State is owned by a single parse and must not be shared.
type State[T any] struct {
	cursor  Cursor[T]
	commits []bool
	tracer  Tracer
	quota   stepQuota
}

// NewState creates a parse state positioned at the start of input.
// Run is the usual entry point; NewState exists for callers driving parsers
// by hand.
func NewState[T any](input []T, opts ...RunOption) *State[T] {
	cfg := newRunConfig(opts)
	return &State[T]{
		cursor:  NewCursor(input),
		commits: []bool{false},
		tracer:  cfg.tracer,
		quota:   stepQuota{max: cfg.maxSteps},
	}
}

// Cursor returns the current cursor.
func (s *State[T]) Cursor() Cursor[T] {
	return s.cursor
}

// Offset returns the current absolute position.
func (s *State[T]) Offset() int {
	return s.cursor.offset
}

// Snapshot returns a restore point. O(1).
func (s *State[T]) Snapshot() Cursor[T] {
	return s.cursor
}

// Restore rewinds (or moves) the cursor to a snapshot taken from this state.
func (s *State[T]) Restore(c Cursor[T]) {
	if c.offset != s.cursor.offset {
		s.tracer.Trace(Event{Kind: EventBacktrack, Offset: s.cursor.offset, Target: c.offset})
	}
	s.cursor = c
}

// Commit marks the innermost Tri scope as committed. Any Recoverable failure
// that later leaves that scope is escalated to Committed.
func (s *State[T]) Commit() {
	top := len(s.commits) - 1
	if !s.commits[top] {
		s.tracer.Trace(Event{Kind: EventCommit, Offset: s.cursor.offset})
	}
	s.commits[top] = true
}

// Committed reports whether the innermost scope has been committed.
func (s *State[T]) Committed() bool {
	return s.commits[len(s.commits)-1]
}

// resetCommit sets the innermost marker back to was, discarding a Commit made
// by an attempt whose match was thrown away.
func (s *State[T]) resetCommit(was bool) {
	s.commits[len(s.commits)-1] = was
}

// cut escalates f if the attempt that raised it ran Commit, that is, the
// innermost marker is set now but was clear when the attempt began. It
// reports false when the caller may rewind and try something else.
func (s *State[T]) cut(was bool, f *Failure) (*Failure, bool) {
	if was || !s.Committed() {
		return nil, false
	}
	s.trace(Event{Kind: EventEscalate, Offset: f.Offset})
	return f.escalated(), true
}

// Depth returns the number of open Tri scopes.
func (s *State[T]) Depth() int {
	return len(s.commits) - 1
}

// Fail returns a Recoverable failure at the current offset.
func (s *State[T]) Fail(description string) *Failure {
	return &Failure{Severity: Recoverable, Offset: s.cursor.offset, Description: description}
}

// Failf formats its arguments with fmt.Sprintf, then calls Fail.
func (s *State[T]) Failf(format string, args ...any) *Failure {
	return s.Fail(fmt.Sprintf(format, args...))
}

func (s *State[T]) advance(n int) {
	s.cursor = s.cursor.Advance(n)
}

func (s *State[T]) pushScope() {
	s.commits = append(s.commits, false)
}

// popScope closes the innermost scope and reports whether it was committed.
func (s *State[T]) popScope() bool {
	top := len(s.commits) - 1
	committed := s.commits[top]
	s.commits = s.commits[:top]
	return committed
}

// Steps returns the number of labelled parsers entered so far.
func (s *State[T]) Steps() int {
	return s.quota.current
}

func (s *State[T]) trace(ev Event) {
	s.tracer.Trace(ev)
}
