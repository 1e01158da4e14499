package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/picoparse/internal/grammar/lambda"
	"github.com/roach88/picoparse/internal/ir"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestRun_Success(t *testing.T) {
	scenario := &Scenario{
		Name:        "ident",
		Description: "single identifier",
		Grammar:     "lambda",
		Input:       "foo",
		Expect: Expect{
			OK:        true,
			Remaining: strPtr(""),
			Value: map[string]any{
				"kind": "prog",
				"body": []any{map[string]any{"kind": "ident", "name": "foo"}},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "ident-1", result.RunID)
	assert.True(t, ir.Equal(lambda.ProgramNode([]ir.Value{lambda.IdentNode("foo")}), result.Value))
	assert.NotEmpty(t, result.Trace)
}

func TestRun_TraceIsSeqOrderedAfterRun(t *testing.T) {
	scenario := &Scenario{Name: "s", Description: "d", Grammar: "lambda", Input: "f x", Expect: Expect{OK: true}}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trace)

	// The run itself takes seq 1.
	assert.Equal(t, int64(2), result.Trace[0].Seq)
	for i := 1; i < len(result.Trace); i++ {
		assert.Equal(t, result.Trace[i-1].Seq+1, result.Trace[i].Seq)
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario := &Scenario{Name: "s", Description: "d", Grammar: "xml", Input: "<a><b/>t</a>", Expect: Expect{OK: true}}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.RunID, second.RunID)
}

func TestRun_Failure(t *testing.T) {
	scenario := &Scenario{
		Name:        "broken",
		Description: "unterminated string",
		Grammar:     "lambda",
		Input:       `"abc`,
		Expect: Expect{
			OK:              false,
			Offset:          intPtr(4),
			MessageContains: "expected closing",
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.False(t, result.OK)
	assert.Nil(t, result.Value)
}

func TestRun_ExpectMismatches(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		expect  Expect
		wantErr string
	}{
		{"expected failure", "x", Expect{OK: false}, "expected parse to fail"},
		{"expected success", "let", Expect{OK: true}, "expected parse to succeed"},
		{"value", "x", Expect{OK: true, Value: map[string]any{"kind": "prog", "body": []any{}}}, "value mismatch"},
		{"bad value", "x", Expect{OK: true, Value: 1.5}, "expect.value"},
		{"remaining", "x", Expect{OK: true, Remaining: strPtr("y")}, `remaining = "", expected "y"`},
		{"offset", "1.", Expect{OK: false, Offset: intPtr(0)}, "failure offset = 2, expected 0"},
		{"message", "1.", Expect{OK: false, MessageContains: "quote"}, "does not contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(&Scenario{Name: "m", Description: "d", Grammar: "lambda", Input: tt.input, Expect: tt.expect})
			require.NoError(t, err)
			assert.False(t, result.Pass)
			require.NotEmpty(t, result.Errors)
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestRun_Whitespace(t *testing.T) {
	scenario := &Scenario{
		Name:        "ws",
		Description: "newline is not whitespace",
		Grammar:     "lambda",
		Whitespace:  " ",
		Input:       "f\nx",
		Expect:      Expect{OK: false},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnknownGrammar(t *testing.T) {
	_, err := Run(&Scenario{Name: "n", Description: "d", Grammar: "cobol"})
	assert.Error(t, err)
}

func TestRun_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Run(&Scenario{Name: "n", Description: "d", Grammar: "xml", Input: "<a/>", Expect: Expect{OK: true}}, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "scenario completed")
	assert.Contains(t, buf.String(), "run_id=n-1")
}

func TestRun_Testdata(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)

	for _, f := range files {
		scenario, err := LoadScenario(f)
		require.NoError(t, err, f)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
