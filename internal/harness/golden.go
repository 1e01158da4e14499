package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/picoparse/internal/ir"
)

// Snapshot renders the observable outcome of a result as canonical JSON:
// ok and remaining always, value on success, offset and description on
// failure. Trace seq numbers are left out so grammar refactors that add or
// drop labels do not churn golden files; use trace assertions for those.
func Snapshot(result *Result) ([]byte, error) {
	obj := ir.Object{
		"ok":        ir.Bool(result.OK),
		"remaining": ir.String(result.Remaining),
	}
	if result.OK {
		value := result.Value
		if value == nil {
			value = ir.Null{}
		}
		obj["value"] = value
	} else {
		obj["offset"] = ir.Int(result.Offset)
		obj["description"] = ir.String(result.Description)
	}
	return ir.MarshalCanonical(obj)
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be executed. A snapshot mismatch
// fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// GoldenPath returns the golden file used for a scenario file outside of
// tests: golden/<basename>.golden next to the scenario.
func GoldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// WriteGolden writes the snapshot of result to path, creating directories
// as needed.
func WriteGolden(path string, result *Result) error {
	data, err := Snapshot(result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// CompareGolden reports whether the snapshot of result equals the golden
// file at path.
func CompareGolden(path string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	got, err := Snapshot(result)
	if err != nil {
		return false, err
	}
	return string(want) == string(got), nil
}
