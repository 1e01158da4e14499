// Package engine implements the picoparse combinator engine.
//
// A parser is a plain function over an explicit parse state:
//
//	type Parser[T, V any] func(s *State[T]) (V, error)
//
// Success returns a value and leaves the state advanced. Failure returns a
// non-nil error, normally a *Failure carrying a severity, an offset and a
// description.
//
// ARCHITECTURE:
//
// Cursor and State:
// A Cursor is the whole input plus an absolute offset. Snapshots are value
// copies, so every backtrack is an O(1) rewind with no token copying. The
// State holds the live Cursor and a stack of commit markers, one per open
// Tri scope plus a root marker.
//
// Failure severities:
//   - Recoverable: "this alternative does not apply here". Choice, Optional,
//     Many and NotFollowedBy turn it into control flow.
//   - Committed: "the grammar has decided and the input is malformed".
//     Nothing except the Runner stops it.
//
// Tri and Commit:
// Tri opens an atomic scope. A Recoverable failure leaving the scope rewinds
// the cursor to where the scope started. Once Commit has run inside the scope,
// a Recoverable failure leaving it is escalated to Committed and the cursor is
// left at the failure point. Alternation and repetition are cut-aware: when
// an attempt of Choice, Many, ManyUntil or NotFollowedBy runs Commit and then
// fails Recoverable, the combinator escalates right away instead of trying
// the next alternative. A Commit made by an attempt whose match is discarded
// (the p of a NotFollowedBy that matched) is reset with the cursor.
//
// Errors that are not a *Failure (returned by user parsers) are treated like
// Committed failures: never swallowed, never rewound, and returned unchanged
// by Run.
//
// Step quota:
// WithMaxSteps bounds the number of Desc-labelled parsers a run may enter.
// Going over aborts the run with a *StepsExceededError, which like any other
// foreign error is never recovered from.
//
// The engine is single-threaded and never blocks. Each Run owns its State;
// independent runs may execute concurrently.
package engine
