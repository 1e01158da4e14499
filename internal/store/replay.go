package store

import (
	"context"
	"fmt"
)

// ReparseFunc parses input with the named grammar again.
type ReparseFunc func(ctx context.Context, grammar, input string) (Outcome, error)

// ReplayResult compares a stored run with a fresh parse of its input.
type ReplayResult struct {
	RunID        string
	Grammar      string
	Match        bool
	ExpectedHash string
	ActualHash   string
	Actual       Outcome
}

// Replay re-parses the stored input of one run and compares result hashes.
// A mismatch is reported through ReplayResult.Match, not as an error.
func (s *Store) Replay(ctx context.Context, runID string, reparse ReparseFunc) (ReplayResult, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}
	return replayRun(ctx, run, reparse)
}

// ReplayAll replays every stored run in seq order.
// Stops at the first error; mismatches do not stop the replay.
func (s *Store) ReplayAll(ctx context.Context, reparse ReparseFunc) ([]ReplayResult, error) {
	runs, err := s.ListRuns(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	results := make([]ReplayResult, 0, len(runs))
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := replayRun(ctx, run, reparse)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func replayRun(ctx context.Context, run Run, reparse ReparseFunc) (ReplayResult, error) {
	out, err := reparse(ctx, run.Grammar, run.Input)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay run %q: %w", run.ID, err)
	}
	hash, err := out.Hash()
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay run %q: %w", run.ID, err)
	}
	return ReplayResult{
		RunID:        run.ID,
		Grammar:      run.Grammar,
		Match:        hash == run.ResultHash,
		ExpectedHash: run.ResultHash,
		ActualHash:   hash,
		Actual:       out,
	}, nil
}
