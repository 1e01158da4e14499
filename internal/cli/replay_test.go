package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/picoparse/internal/store"
)

func TestReplayMissingDatabaseFlag(t *testing.T) {
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	st.Close()

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No runs found in database.")
}

func TestReplayAllRunsReproduce(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, dbPath, "doc", "xml", `<a x="1">hi</a>`)
	recordRun(t, dbPath, "bad", "lambda", "let = 5")

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Replay Summary: 2 run(s)")
	assert.Contains(t, output, "\u2713 Run: doc-1 (xml, ok)")
	assert.Contains(t, output, "\u2713 Run: bad-1 (lambda, fail)")
	assert.Contains(t, output, "\u2713 All runs reproduced")
}

func TestReplayJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, dbPath, "doc", "xml", "<a/>")

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllMatch)
	assert.Equal(t, 1, resp.Data.TotalRuns)
	require.Len(t, resp.Data.Runs, 1)
	assert.Equal(t, resp.Data.Runs[0].ExpectedHash, resp.Data.Runs[0].ActualHash)
}

func TestReplaySpecificRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, dbPath, "one", "xml", "<a/>")
	recordRun(t, dbPath, "two", "xml", "<b/>")

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, "--run", "two-1"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Replay Summary: 1 run(s)")
	assert.Contains(t, buf.String(), "two-1")
	assert.NotContains(t, buf.String(), "one-1")
}

func TestReplayRunNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	recordRun(t, dbPath, "doc", "xml", "<a/>")

	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath, "--run", "nope"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: nope")
}

func TestReplayDetectsMismatch(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	runID := recordRun(t, dbPath, "doc", "xml", "<a/>")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(),
		`UPDATE runs SET result_hash = 'stale' WHERE id = ?`, runID)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "\u2717 Run: doc-1")
	assert.Contains(t, buf.String(), "Expected: stale")
	assert.Contains(t, buf.String(), "1 run(s) replayed with a different result")
}

func TestReplayDetectsMismatchJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	runID := recordRun(t, dbPath, "doc", "xml", "<a/>")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(),
		`UPDATE runs SET result_hash = 'stale' WHERE id = ?`, runID)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	buf := &bytes.Buffer{}
	cmd := NewReplayCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	err = cmd.Execute()
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
}
