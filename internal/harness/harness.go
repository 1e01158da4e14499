package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/picoparse/internal/engine"
	"github.com/roach88/picoparse/internal/grammar"
	"github.com/roach88/picoparse/internal/ir"
	"github.com/roach88/picoparse/internal/store"
	"github.com/roach88/picoparse/internal/testutil"
	"github.com/roach88/picoparse/internal/trace"
)

// Harness runs a scenario against a fresh store with deterministic seq
// numbers and run IDs.
type Harness struct {
	store  *store.Store
	clock  *testutil.DeterministicClock
	ids    store.IDGenerator
	logger *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger logs scenario progress to logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. The parse is traced with
// a recorder stamped by a clock starting at 0, the run and its trace are
// stored, and the trace is read back before assertions are evaluated, so
// the same scenario always produces the same result.
//
// An error is returned only when the scenario cannot be executed at all.
// Expectation and assertion failures are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		ids:    store.NewSequentialGenerator(scenario.Name),
		logger: testutil.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}

	ctx := context.Background()

	result, err := h.execute(ctx, scenario)
	if err != nil {
		return nil, err
	}

	h.checkExpect(scenario.Expect, result)

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"events", len(result.Trace),
	)
	return result, nil
}

// execute parses the scenario input, stores the run and reads its trace back.
func (h *Harness) execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	g, err := grammar.Lookup(scenario.Grammar)
	if err != nil {
		return nil, err
	}
	g = g.WithWhitespace(scenario.Whitespace)

	// The run takes the first seq so its events come after it.
	runSeq := h.clock.Next()
	rec := trace.NewRecorder(h.clock)

	out, err := store.OutcomeOf(g.Parse(scenario.Input, engine.WithTracer(rec)))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	run, err := store.NewRun(h.ids.Generate(), runSeq, scenario.Grammar, scenario.Input, out)
	if err != nil {
		return nil, err
	}
	if err := h.store.WriteRun(ctx, run); err != nil {
		return nil, err
	}
	if err := h.store.WriteTrace(ctx, run.ID, rec.Records()); err != nil {
		return nil, err
	}

	stored, err := h.store.ReadTrace(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("scenario parsed",
		"scenario", scenario.Name,
		"run_id", run.ID,
		"status", run.Status,
	)

	result := NewResult()
	result.RunID = run.ID
	result.OK = out.OK
	result.Value = out.Value
	result.Remaining = out.Remaining
	result.Offset = out.Offset
	result.Description = out.Description
	result.Trace = stored
	return result, nil
}

// checkExpect compares the outcome against the expect clause.
func (h *Harness) checkExpect(expect Expect, result *Result) {
	if expect.OK != result.OK {
		if result.OK {
			result.AddError("expected parse to fail, but it succeeded")
		} else {
			result.AddError(fmt.Sprintf("expected parse to succeed, got failure at offset %d: %s",
				result.Offset, result.Description))
		}
		return
	}

	if expect.Value != nil {
		want, err := ir.FromAny(expect.Value)
		if err != nil {
			result.AddError(fmt.Sprintf("expect.value: %v", err))
		} else if !ir.Equal(want, result.Value) {
			result.AddError(fmt.Sprintf("value mismatch:\n  expected: %s\n  actual:   %s",
				canonicalString(want), canonicalString(result.Value)))
		}
	}

	if expect.Remaining != nil && *expect.Remaining != result.Remaining {
		result.AddError(fmt.Sprintf("remaining = %q, expected %q", result.Remaining, *expect.Remaining))
	}

	if expect.Offset != nil && *expect.Offset != result.Offset {
		result.AddError(fmt.Sprintf("failure offset = %d, expected %d", result.Offset, *expect.Offset))
	}

	if expect.MessageContains != "" && !strings.Contains(result.Description, expect.MessageContains) {
		result.AddError(fmt.Sprintf("failure description %q does not contain %q",
			result.Description, expect.MessageContains))
	}
}

func canonicalString(v ir.Value) string {
	if v == nil {
		return "<nil>"
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
