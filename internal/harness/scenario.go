package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/picoparse/internal/grammar"
)

// Scenario is one parse to run and check.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Grammar is a registered grammar name (see grammar.Names).
	Grammar string `yaml:"grammar"`

	// Whitespace overrides the grammar's whitespace set. Empty keeps the
	// default.
	Whitespace string `yaml:"whitespace,omitempty"`

	// Input is the text to parse. It may be empty.
	Input string `yaml:"input"`

	// Expect describes the parse outcome.
	Expect Expect `yaml:"expect"`

	// Assertions check the recorded trace and the stored run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expect describes the expected outcome of a scenario's parse.
// Only the fields that are set are checked, except OK which always is.
type Expect struct {
	// OK is true if the parse should succeed.
	OK bool `yaml:"ok"`

	// Value is the expected result value, compared exactly.
	Value any `yaml:"value,omitempty"`

	// Remaining is the expected unconsumed input.
	Remaining *string `yaml:"remaining,omitempty"`

	// Offset is the expected failure offset.
	Offset *int `yaml:"offset,omitempty"`

	// MessageContains must be a substring of the failure description.
	MessageContains string `yaml:"message_contains,omitempty"`
}

// Assertion validates the trace or the stored run.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_state.
	Type string `yaml:"type"`

	// Kind is the trace event kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Label restricts matching to events with this label.
	Label string `yaml:"label,omitempty"`

	// Offset restricts matching to events at this position (trace_contains).
	Offset *int `yaml:"offset,omitempty"`

	// Count is the expected number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`

	// Events is the expected order of events (trace_order).
	// Intervening events are allowed.
	Events []EventRef `yaml:"events,omitempty"`

	// Table is the store table to query (final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (final_state). All fields must match.
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected column values (final_state), subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// EventRef names a trace event by kind and optional label.
type EventRef struct {
	Kind  string `yaml:"kind"`
	Label string `yaml:"label,omitempty"`
}

func (r EventRef) String() string {
	if r.Label == "" {
		return r.Kind
	}
	return r.Kind + "(" + r.Label + ")"
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

var eventKinds = map[string]bool{
	"enter": true, "leave": true, "fail": true,
	"commit": true, "escalate": true, "backtrack": true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict fields catch typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under dir in lexical
// order. A non-empty filter is a glob matched against the file name
// without extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Grammar == "" {
		return fmt.Errorf("grammar is required")
	}
	if _, err := grammar.Lookup(s.Grammar); err != nil {
		return err
	}

	if s.Expect.OK && (s.Expect.Offset != nil || s.Expect.MessageContains != "") {
		return fmt.Errorf("expect: offset and message_contains only apply when ok is false")
	}
	if !s.Expect.OK && s.Expect.Value != nil {
		return fmt.Errorf("expect: value only applies when ok is true")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains, AssertTraceCount:
		if !eventKinds[a.Kind] {
			return fmt.Errorf("assertions[%d]: unknown event kind %q for %s", index, a.Kind, a.Type)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
		for j, ev := range a.Events {
			if !eventKinds[ev.Kind] {
				return fmt.Errorf("assertions[%d].events[%d]: unknown event kind %q", index, j, ev.Kind)
			}
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
