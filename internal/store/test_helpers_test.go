package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/picoparse/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createOKRun creates a successful run whose result is a single string.
func createOKRun(t *testing.T, id string, seq int64, grammar, input string) Run {
	t.Helper()
	run, err := NewRun(id, seq, grammar, input, Outcome{OK: true, Value: ir.String(input)})
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}
	return run
}

// createFailedRun creates a failed run.
func createFailedRun(t *testing.T, id string, seq int64, grammar, input string, offset int) Run {
	t.Helper()
	run, err := NewRun(id, seq, grammar, input, Outcome{
		Remaining:   input[offset:],
		Offset:      offset,
		Description: "expected digit, got 'x'",
	})
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}
	return run
}
