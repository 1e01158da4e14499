package harness

import (
	"github.com/roach88/picoparse/internal/ir"
	"github.com/roach88/picoparse/internal/trace"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if the expect clause and every assertion held.
	Pass bool `json:"pass"`

	// RunID is the ID the run was stored under.
	RunID string `json:"run_id"`

	// OK reports whether the parse succeeded.
	OK bool `json:"ok"`

	// Value is the parse result, nil on failure.
	Value ir.Value `json:"value,omitempty"`

	// Remaining is the unconsumed input.
	Remaining string `json:"remaining"`

	// Offset and Description describe the failure when OK is false.
	// Offset is always emitted since 0 is a valid failure position.
	Offset      int    `json:"offset"`
	Description string `json:"description,omitempty"`

	// Trace holds every engine event of the parse, read back from the store.
	Trace []trace.Record `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []trace.Record{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
