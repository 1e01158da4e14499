package store

import (
	"errors"
	"fmt"

	"github.com/roach88/picoparse/internal/engine"
	"github.com/roach88/picoparse/internal/ir"
)

// Run statuses.
const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Outcome is the observable result of one parse.
type Outcome struct {
	OK          bool
	Value       ir.Value
	Remaining   string
	Offset      int
	Description string
}

// OutcomeOf converts the return values of a grammar run into an Outcome.
// A *engine.NoMatchError becomes a failed Outcome; any other error is
// returned as is.
func OutcomeOf(value ir.Value, remaining string, err error) (Outcome, error) {
	if err == nil {
		return Outcome{OK: true, Value: value, Remaining: remaining}, nil
	}
	nm, ok := engine.AsNoMatch(err)
	if !ok {
		return Outcome{}, err
	}
	return Outcome{Remaining: remaining, Offset: nm.Offset, Description: nm.Description}, nil
}

// Hash returns the content hash of the outcome.
func (o Outcome) Hash() (string, error) {
	value := o.Value
	if value == nil {
		value = ir.Null{}
	}
	return ir.ResultHash(o.OK, value, o.Remaining, o.Offset, o.Description)
}

// Run is one stored parse.
type Run struct {
	ID              string
	Seq             int64
	Grammar         string
	Input           string
	InputHash       string
	Status          string
	Result          ir.Value // nil unless Status is StatusOK
	ResultHash      string
	Remaining       string
	FailOffset      int
	FailDescription string
	EngineVersion   string
	IRVersion       string
}

// NewRun builds a Run from an outcome, computing both hashes and stamping
// the current engine and IR versions.
func NewRun(id string, seq int64, grammar, input string, out Outcome) (Run, error) {
	inputHash, err := ir.InputHash(grammar, input)
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}
	resultHash, err := out.Hash()
	if err != nil {
		return Run{}, fmt.Errorf("new run: %w", err)
	}

	run := Run{
		ID:            id,
		Seq:           seq,
		Grammar:       grammar,
		Input:         input,
		InputHash:     inputHash,
		ResultHash:    resultHash,
		Remaining:     out.Remaining,
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	if out.OK {
		run.Status = StatusOK
		run.Result = out.Value
	} else {
		run.Status = StatusFail
		run.FailOffset = out.Offset
		run.FailDescription = out.Description
	}
	return run, nil
}

// Outcome reconstructs the outcome the run recorded.
func (r Run) Outcome() Outcome {
	if r.Status == StatusOK {
		return Outcome{OK: true, Value: r.Result, Remaining: r.Remaining}
	}
	return Outcome{Remaining: r.Remaining, Offset: r.FailOffset, Description: r.FailDescription}
}
