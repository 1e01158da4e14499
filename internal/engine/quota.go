package engine

import (
	"errors"
	"fmt"
)

// stepQuota counts labelled-parser entries and enforces a maximum.
//
// Committed choice keeps well-formed grammars linear, but a grammar that
// backtracks over the same prefix at every level can still go exponential.
// The quota turns that into a prompt error instead of a hang.
type stepQuota struct {
	max     int // 0 means unlimited
	current int
}

// check counts one step and reports whether the limit is exceeded.
func (q *stepQuota) check(label string, offset int) error {
	q.current++
	if q.max > 0 && q.current > q.max {
		return &StepsExceededError{Label: label, Offset: offset, Steps: q.current, Limit: q.max}
	}
	return nil
}

// WithMaxSteps limits a run to max entries into Desc-labelled parsers.
// Zero or a negative value means no limit.
func WithMaxSteps(max int) RunOption {
	return func(c *runConfig) {
		if max > 0 {
			c.maxSteps = max
		}
	}
}

// StepsExceededError aborts a run that went over its step quota.
//
// It is not a *Failure: no combinator recovers from it and Run returns it
// unchanged rather than as a *NoMatchError.
type StepsExceededError struct {
	Label  string // parser being entered when the quota ran out
	Offset int    // input position at that moment
	Steps  int
	Limit  int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("parse exceeded max steps: %d steps > %d limit (entering %s at offset %d)",
		e.Steps, e.Limit, e.Label, e.Offset)
}

// IsStepsExceeded returns true if err is (or wraps) a StepsExceededError.
func IsStepsExceeded(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
