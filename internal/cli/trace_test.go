package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/picoparse/internal/trace"
)

func TestTraceMissingFlags(t *testing.T) {
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTraceRunNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, dbPath, "doc", "xml", "<a/>")

	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, "--run", "nope"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: nope")
}

func TestTraceUnknownKind(t *testing.T) {
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", filepath.Join(t.TempDir(), "runs.db"), "--run", "x", "--kind", "jump"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown event kind "jump"`)
}

func TestTraceText(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	runID := recordRun(t, dbPath, "doc", "xml", "<a/>")

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--run", runID})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Trace for Run: doc-1")
	assert.Contains(t, output, "Grammar: xml")
	assert.Contains(t, output, "Status: ok")
	assert.Contains(t, output, "=== Timeline ===")
	assert.Contains(t, output, "ENTER")
	assert.Contains(t, output, "element @1:1")
	assert.Contains(t, output, "=== Stats ===")
}

func TestTraceFailedRunWithKind(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	runID := recordRun(t, dbPath, "bad", "lambda", "let = 5")

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--run", runID, "--kind", "escalate"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Status: fail at offset 4")
	assert.Contains(t, output, "ESCALATE")
	assert.Contains(t, output, "@1:5")
	assert.NotContains(t, output, "ENTER")
}

func TestTraceJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	runID := recordRun(t, dbPath, "doc", "xml", "<a/>")

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--run", runID})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
		RunID  string      `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, runID, resp.RunID)
	require.NotEmpty(t, resp.Data.Timeline)
	assert.Equal(t, len(resp.Data.Timeline), resp.Data.Stats.TotalEvents)
	assert.Equal(t, resp.Data.Stats.Enter, resp.Data.Stats.Leave+resp.Data.Stats.Fail)
}

func TestBuildTimeline(t *testing.T) {
	input := "ab\ncd"
	records := []trace.Record{
		{Seq: 1, Kind: "enter", Label: "pair", Offset: 0},
		{Seq: 2, Kind: "fail", Label: "pair", Offset: 4},
		{Seq: 3, Kind: "backtrack", Offset: 4, Target: 0},
	}

	timeline := buildTimeline(input, records, "")
	require.Len(t, timeline, 3)
	assert.Equal(t, 2, timeline[1].Line)
	assert.Equal(t, 2, timeline[1].Column)
	assert.Nil(t, timeline[0].Target)
	require.NotNil(t, timeline[2].Target)
	assert.Equal(t, 0, *timeline[2].Target)

	filtered := buildTimeline(input, records, "fail")
	require.Len(t, filtered, 1)
	assert.Equal(t, int64(2), filtered[0].Seq)
}

func TestBuildStats(t *testing.T) {
	records := []trace.Record{
		{Kind: "enter"}, {Kind: "enter"}, {Kind: "leave"}, {Kind: "fail"},
		{Kind: "commit"}, {Kind: "escalate"}, {Kind: "backtrack"},
	}

	stats := buildStats(records)
	assert.Equal(t, TraceStats{
		TotalEvents: 7, Enter: 2, Leave: 1, Fail: 1, Commit: 1, Escalate: 1, Backtrack: 1,
	}, stats)
}

func TestFormatTimelineEvent(t *testing.T) {
	target := 3
	var b strings.Builder
	formatTimelineEvent(&b, TraceEvent{Seq: 7, Kind: "backtrack", Offset: 5, Line: 1, Column: 6, Target: &target}, true)
	assert.Equal(t, "  [7] BACKTRACK @1:6 -> 3 (offset 5)\n", b.String())
}
