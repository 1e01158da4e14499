package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Severity classifies a Failure.
type Severity int

const (
	// Recoverable means the current alternative does not apply. Enclosing
	// alternation may rewind and try something else.
	Recoverable Severity = iota

	// Committed means the grammar has already chosen this production and
	// the input is malformed. Alternation never swallows it.
	Committed
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case Recoverable:
		return "recoverable"
	case Committed:
		return "committed"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Failure is the error value every engine combinator returns on mismatch.
type Failure struct {
	// Severity decides whether alternation may recover from this failure.
	Severity Severity

	// Offset is the absolute input position where the mismatch was detected.
	Offset int

	// Description is a human-readable "expected X, got Y" message.
	// May be empty.
	Description string
}

// Error implements the error interface.
func (f *Failure) Error() string {
	desc := f.Description
	if desc == "" {
		desc = "no match"
	}
	return fmt.Sprintf("%s at offset %d (%s)", desc, f.Offset, f.Severity)
}

// escalated returns a Committed copy of f.
func (f *Failure) escalated() *Failure {
	return &Failure{Severity: Committed, Offset: f.Offset, Description: f.Description}
}

// AsFailure extracts a *Failure from err. Uses errors.As so wrapped failures
// are found.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsRecoverable reports whether err is a Recoverable *Failure.
// Any other error, including a Committed failure, is not recoverable.
func IsRecoverable(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Severity == Recoverable
}

// IsCommitted reports whether err is a Committed *Failure.
func IsCommitted(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Severity == Committed
}

// describeToken renders a token for failure messages.
func describeToken(tok any) string {
	switch t := tok.(type) {
	case rune:
		return strconv.QuoteRune(t)
	case byte:
		return strconv.QuoteRune(rune(t))
	case string:
		return strconv.Quote(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// describeSeq renders a token sequence for failure messages.
// Rune and byte sequences render as one quoted string.
func describeSeq[T any](seq []T) string {
	switch s := any(seq).(type) {
	case []rune:
		return strconv.Quote(string(s))
	case []byte:
		return strconv.Quote(string(s))
	}
	parts := make([]string, len(seq))
	for i, tok := range seq {
		parts[i] = describeToken(tok)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// describeNext renders the next token of c, or "end of input".
func describeNext[T any](c Cursor[T]) string {
	tok, ok := c.First()
	if !ok {
		return "end of input"
	}
	return describeToken(tok)
}
