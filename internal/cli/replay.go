package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/picoparse/internal/grammar"
	"github.com/roach88/picoparse/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID        string `json:"run_id"`
	Grammar      string `json:"grammar"`
	Status       string `json:"status"`
	ExpectedHash string `json:"expected_hash"`
	ActualHash   string `json:"actual_hash"`
	Match        bool   `json:"match"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs       []ReplayRunResult `json:"runs"`
	TotalRuns  int               `json:"total_runs"`
	Mismatches int               `json:"mismatches"`
	AllMatch   bool              `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-parse recorded runs and verify their results",
		Long: `Re-parse the stored input of recorded runs and compare result hashes.

The result hash covers the outcome (value or failure offset and message)
and the remaining input, so any grammar or engine change that alters what
a recorded input parses to is reported as a mismatch. Whitespace overrides
are not stored with a run: runs are replayed with each grammar's default
whitespace unless the config sets one.

Exit codes:
  0 - All runs reproduce their recorded result
  1 - One or more runs produced a different result
  2 - Command error (database not found, unknown grammar, etc.)

Examples:
  picoparse replay --db ./runs.db
  picoparse replay --db ./runs.db --run 0190f0e4-...
  picoparse replay --db ./runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	reparse := reparser(opts.settings().Whitespace)

	var replays []store.ReplayResult
	if opts.RunID != "" {
		res, err := st.Replay(ctx, opts.RunID, reparse)
		if errors.Is(err, store.ErrRunNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to replay run", err)
		}
		replays = []store.ReplayResult{res}
	} else {
		replays, err = st.ReplayAll(ctx, reparse)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to replay runs", err)
		}
	}

	if len(replays) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, ReplayResult{
				Runs:     []ReplayRunResult{},
				AllMatch: true,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No runs found in database.")
		return nil
	}

	result := ReplayResult{
		Runs:      make([]ReplayRunResult, 0, len(replays)),
		TotalRuns: len(replays),
		AllMatch:  true,
	}
	for _, r := range replays {
		status := store.StatusOK
		if !r.Actual.OK {
			status = store.StatusFail
		}
		result.Runs = append(result.Runs, ReplayRunResult{
			RunID:        r.RunID,
			Grammar:      r.Grammar,
			Status:       status,
			ExpectedHash: r.ExpectedHash,
			ActualHash:   r.ActualHash,
			Match:        r.Match,
		})
		if !r.Match {
			result.Mismatches++
			result.AllMatch = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// reparser parses stored input again with the registered grammar.
func reparser(whitespace string) store.ReparseFunc {
	return func(ctx context.Context, name, input string) (store.Outcome, error) {
		g, err := grammar.Lookup(name)
		if err != nil {
			return store.Outcome{}, err
		}
		return store.OutcomeOf(g.WithWhitespace(whitespace).Parse(input))
	}
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllMatch {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeMismatch,
			Message: fmt.Sprintf("%d run(s) replayed with a different result", result.Mismatches),
		}
	}

	if err := writeResponse(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.AllMatch {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		mark := "\u2713"
		if !run.Match {
			mark = "\u2717"
		}

		fmt.Fprintf(w, "%s Run: %s (%s, %s)\n", mark, run.RunID, run.Grammar, run.Status)

		if verbose || !run.Match {
			fmt.Fprintf(w, "  Expected: %s\n", run.ExpectedHash)
			fmt.Fprintf(w, "  Actual:   %s\n", run.ActualHash)
		}
	}
	fmt.Fprintln(w)

	if result.AllMatch {
		fmt.Fprintln(w, "\u2713 All runs reproduced")
		return nil
	}

	fmt.Fprintf(w, "\u2717 %d run(s) replayed with a different result\n", result.Mismatches)
	return NewExitError(ExitFailure, "replay verification failed")
}
