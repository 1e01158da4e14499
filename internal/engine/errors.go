package engine

import (
	"errors"
	"fmt"
)

// NoMatchError is the single terminal failure Run reports to its caller.
//
// The severity of the underlying Failure is deliberately dropped: severity
// only steers combinators inside a parse. Callers see where the parse got
// stuck and why.
type NoMatchError struct {
	// Offset is the absolute input position of the failure.
	Offset int

	// Description is the failure's "expected X, got Y" message.
	Description string
}

// Error implements the error interface.
func (e *NoMatchError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("no match at offset %d", e.Offset)
	}
	return fmt.Sprintf("no match at offset %d: %s", e.Offset, e.Description)
}

// IsNoMatch returns true if err is (or wraps) a NoMatchError.
// Uses errors.As to handle wrapped errors.
func IsNoMatch(err error) bool {
	var nm *NoMatchError
	return errors.As(err, &nm)
}

// AsNoMatch extracts the NoMatchError from err, if any.
func AsNoMatch(err error) (*NoMatchError, bool) {
	var nm *NoMatchError
	if errors.As(err, &nm) {
		return nm, true
	}
	return nil, false
}
