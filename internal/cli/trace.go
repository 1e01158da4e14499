package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/picoparse/internal/engine"
	"github.com/roach88/picoparse/internal/store"
	"github.com/roach88/picoparse/internal/text"
	"github.com/roach88/picoparse/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunID    string
	Kind     string // optional - filter to one event kind
}

// TraceEvent is one engine event placed in the run's input.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"`
	Label  string `json:"label,omitempty"`
	Offset int    `json:"offset"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Target *int   `json:"target,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunID    string       `json:"run_id"`
	Grammar  string       `json:"grammar"`
	Status   string       `json:"status"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats counts the run's events by kind. Counts ignore --kind.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Enter       int `json:"enter"`
	Leave       int `json:"leave"`
	Fail        int `json:"fail"`
	Commit      int `json:"commit"`
	Escalate    int `json:"escalate"`
	Backtrack   int `json:"backtrack"`
}

var eventKinds = []engine.EventKind{
	engine.EventEnter, engine.EventLeave, engine.EventFail,
	engine.EventCommit, engine.EventEscalate, engine.EventBacktrack,
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the engine trace of a recorded run",
		Long: `Show the engine events recorded for one parse run.

Each event is listed with its seq number, kind, label and the input
position (offset and line:column) it happened at. Backtrack events also
show the position the cursor was restored to.

Examples:
  picoparse trace --db ./runs.db --run 0190f0e4-...
  picoparse trace --db ./runs.db --run 0190f0e4-... --kind escalate
  picoparse trace --db ./runs.db --run 0190f0e4-... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run ID to trace (required)")
	_ = cmd.MarkFlagRequired("run")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show events of this kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	if opts.Kind != "" && !isEventKind(opts.Kind) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown event kind %q", opts.Kind))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	run, err := st.GetRun(ctx, opts.RunID)
	if errors.Is(err, store.ErrRunNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	records, err := st.ReadTrace(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read trace", err)
	}

	result := TraceResult{
		RunID:    run.ID,
		Grammar:  run.Grammar,
		Status:   run.Status,
		Timeline: buildTimeline(run.Input, records, opts.Kind),
		Stats:    buildStats(records),
	}

	if opts.Format == "json" {
		return writeResponse(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, RunID: run.ID})
	}
	return outputTraceText(cmd, result, run, opts.Verbose)
}

func isEventKind(kind string) bool {
	for _, k := range eventKinds {
		if string(k) == kind {
			return true
		}
	}
	return false
}

// buildTimeline converts stored records to timeline events, keeping only
// kind when it is set.
func buildTimeline(input string, records []trace.Record, kind string) []TraceEvent {
	if kind != "" {
		records = trace.Filter(records, engine.EventKind(kind))
	}

	timeline := make([]TraceEvent, 0, len(records))
	for _, rec := range records {
		line, col := text.Position(input, rec.Offset)
		ev := TraceEvent{
			Seq:    rec.Seq,
			Kind:   rec.Kind,
			Label:  rec.Label,
			Offset: rec.Offset,
			Line:   line,
			Column: col,
		}
		if rec.Kind == string(engine.EventBacktrack) {
			target := rec.Target
			ev.Target = &target
		}
		timeline = append(timeline, ev)
	}
	return timeline
}

func buildStats(records []trace.Record) TraceStats {
	stats := TraceStats{TotalEvents: len(records)}
	for _, rec := range records {
		switch engine.EventKind(rec.Kind) {
		case engine.EventEnter:
			stats.Enter++
		case engine.EventLeave:
			stats.Leave++
		case engine.EventFail:
			stats.Fail++
		case engine.EventCommit:
			stats.Commit++
		case engine.EventEscalate:
			stats.Escalate++
		case engine.EventBacktrack:
			stats.Backtrack++
		}
	}
	return stats
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, run store.Run, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for Run: %s\n", result.RunID)
	fmt.Fprintf(w, "Grammar: %s\n", result.Grammar)
	fmt.Fprintf(w, "Status: %s\n", runStatus(run))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, event := range result.Timeline {
			formatTimelineEvent(w, event, verbose)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Enter/Leave:  %d/%d\n", result.Stats.Enter, result.Stats.Leave)
	fmt.Fprintf(w, "  Fail:         %d\n", result.Stats.Fail)
	fmt.Fprintf(w, "  Commit:       %d\n", result.Stats.Commit)
	fmt.Fprintf(w, "  Escalate:     %d\n", result.Stats.Escalate)
	fmt.Fprintf(w, "  Backtrack:    %d\n", result.Stats.Backtrack)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	var b strings.Builder
	fmt.Fprintf(&b, "  [%d] %-9s", event.Seq, strings.ToUpper(event.Kind))
	if event.Label != "" {
		fmt.Fprintf(&b, " %s", event.Label)
	}
	fmt.Fprintf(&b, " @%d:%d", event.Line, event.Column)
	if event.Target != nil {
		fmt.Fprintf(&b, " -> %d", *event.Target)
	}
	if verbose {
		fmt.Fprintf(&b, " (offset %d)", event.Offset)
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
}

// runStatus returns a human-readable run status.
func runStatus(run store.Run) string {
	if run.Status == store.StatusOK {
		if run.Remaining != "" {
			return fmt.Sprintf("ok (%d runes left)", len(text.Runes(run.Remaining)))
		}
		return "ok"
	}
	return fmt.Sprintf("fail at offset %d: %s", run.FailOffset, run.FailDescription)
}
