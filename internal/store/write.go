package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/picoparse/internal/trace"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: writing the same run twice
// is silently ignored. Other constraint violations still return errors.
//
// The result value is serialized to RFC 8785 canonical JSON.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	result, err := marshalResult(run.Result)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	var failOffset sql.NullInt64
	var failDesc sql.NullString
	if run.Status == StatusFail {
		failOffset = sql.NullInt64{Int64: int64(run.FailOffset), Valid: true}
		failDesc = sql.NullString{String: run.FailDescription, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, grammar, input, input_hash, status, result, result_hash,
		 remaining, fail_offset, fail_description, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Seq,
		run.Grammar,
		run.Input,
		run.InputHash,
		run.Status,
		result,
		run.ResultHash,
		run.Remaining,
		failOffset,
		failDesc,
		run.EngineVersion,
		run.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}

// WriteTrace stores the trace of a run in one transaction.
// The run must already exist (foreign key constraint). Events already stored
// for the same (run, seq) are left untouched.
func (s *Store) WriteTrace(ctx context.Context, runID string, records []trace.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write trace: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace_events (run_id, seq, kind, label, position, target)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write trace: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, runID, rec.Seq, rec.Kind, rec.Label, rec.Offset, rec.Target); err != nil {
			return fmt.Errorf("write trace: event %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write trace: commit: %w", err)
	}
	return nil
}
