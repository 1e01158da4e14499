package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/picoparse/internal/trace"
)

const runColumns = `id, seq, grammar, input, input_hash, status, result, result_hash,
	remaining, fail_offset, fail_description, engine_version, ir_version`

// GetRun retrieves a single run by ID.
// Returns an error wrapping ErrRunNotFound if there is no such run.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %q: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %q: %w", id, err)
	}
	return run, nil
}

// ListRuns returns stored runs ordered by seq ASC, id ASC COLLATE BINARY.
// An empty grammar lists runs of every grammar.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context, grammar string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if grammar != "" {
		query += ` WHERE grammar = ?`
		args = append(args, grammar)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadTrace returns the trace of a run in seq order.
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadTrace(ctx context.Context, runID string) ([]trace.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, label, position, target
		FROM trace_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	records := []trace.Record{}
	for rows.Next() {
		var rec trace.Record
		if err := rows.Scan(&rec.Seq, &rec.Kind, &rec.Label, &rec.Offset, &rec.Target); err != nil {
			return nil, fmt.Errorf("scan trace event: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return records, nil
}

// LastSeq returns the highest seq recorded in runs or trace events, or 0 for
// an empty store. A clock resumed at LastSeq keeps new records ordered after
// existing ones.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			COALESCE((SELECT MAX(seq) FROM runs), 0),
			COALESCE((SELECT MAX(seq) FROM trace_events), 0)
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		result     sql.NullString
		failOffset sql.NullInt64
		failDesc   sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.Grammar,
		&run.Input,
		&run.InputHash,
		&run.Status,
		&result,
		&run.ResultHash,
		&run.Remaining,
		&failOffset,
		&failDesc,
		&run.EngineVersion,
		&run.IRVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Result, err = unmarshalResult(result)
	if err != nil {
		return Run{}, fmt.Errorf("scan run %q: %w", run.ID, err)
	}
	run.FailOffset = int(failOffset.Int64)
	run.FailDescription = failDesc.String
	return run, nil
}
