package harness

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/picoparse/internal/store"
	"github.com/roach88/picoparse/internal/trace"
)

// validIdentifier matches valid SQL column names.
// Identifiers cannot be parameterized, so only these are interpolated.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// queryableTables are the store tables final_state may read.
var queryableTables = map[string]bool{
	"runs":         true,
	"trace_events": true,
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string         // Assertion type for categorization
	Expected string         // Human-readable expected outcome
	Actual   string         // Human-readable actual outcome
	Trace    []trace.Record // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, rec := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", rec.Seq, rec.Kind)
			if rec.Label != "" {
				fmt.Fprintf(&buf, " %s", rec.Label)
			}
			fmt.Fprintf(&buf, " @%d", rec.Offset)
			if rec.Kind == "backtrack" {
				fmt.Fprintf(&buf, " -> %d", rec.Target)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

func matchesEvent(rec trace.Record, kind, label string) bool {
	return rec.Kind == kind && (label == "" || rec.Label == label)
}

// assertTraceContains checks that some event matches kind, label and offset.
func assertTraceContains(records []trace.Record, assertion Assertion) error {
	for _, rec := range records {
		if !matchesEvent(rec, assertion.Kind, assertion.Label) {
			continue
		}
		if assertion.Offset != nil && rec.Offset != *assertion.Offset {
			continue
		}
		return nil
	}

	want := EventRef{Kind: assertion.Kind, Label: assertion.Label}.String()
	if assertion.Offset != nil {
		want += fmt.Sprintf(" at offset %d", *assertion.Offset)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: "event " + want,
		Actual:   "not found in trace",
		Trace:    records,
	}
}

// assertTraceOrder checks that the events appear in the given order.
// Events don't need to be consecutive; each one is matched at the first
// position after the previous match.
func assertTraceOrder(records []trace.Record, assertion Assertion) error {
	pos := 0
	for i, ref := range assertion.Events {
		found := -1
		for j := pos; j < len(records); j++ {
			if matchesEvent(records[j], ref.Kind, ref.Label) {
				found = j
				break
			}
		}
		if found < 0 {
			actual := fmt.Sprintf("%s not found", ref)
			if i > 0 {
				actual = fmt.Sprintf("%s not found after %s", ref, assertion.Events[i-1])
			}
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual:   actual,
				Trace:    records,
			}
		}
		pos = found + 1
	}
	return nil
}

// assertTraceCount checks the number of events matching kind and label.
func assertTraceCount(records []trace.Record, assertion Assertion) error {
	count := 0
	for _, rec := range records {
		if matchesEvent(rec, assertion.Kind, assertion.Label) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, EventRef{Kind: assertion.Kind, Label: assertion.Label}),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    records,
		}
	}

	return nil
}

// assertFinalState queries a store table and checks that exactly one row
// matches Where and that it carries the Expect values (subset match).
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if !queryableTables[assertion.Table] {
		return fmt.Errorf("invalid table name %q: final_state reads runs or trace_events", assertion.Table)
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}
	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]any, len(columns))
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q to exist", key),
				Actual:   fmt.Sprintf("column %q not present in %v", key, columns),
			}
		}
		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("column %q = %v (type %T)", key, actualValue, actualValue),
			}
		}
	}

	return nil
}

// buildWhereClause constructs a parameterized WHERE clause.
// Keys are sorted for determinism and validated before interpolation.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, where[key])
	}

	return strings.Join(clauses, " AND "), args, nil
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stateValuesEqual compares a YAML value with a column value.
// SQLite returns integers as int64 and text as string or []byte.
func stateValuesEqual(expected, actual any) bool {
	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case nil:
		return actual == nil
	case string:
		s, ok := actual.(string)
		return ok && s == exp
	case int:
		n, ok := actual.(int64)
		return ok && n == int64(exp)
	case int64:
		n, ok := actual.(int64)
		return ok && n == exp
	case bool:
		if b, ok := actual.(bool); ok {
			return b == exp
		}
		n, ok := actual.(int64)
		return ok && (n != 0) == exp
	default:
		return false
	}
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
