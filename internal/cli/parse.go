package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/picoparse/internal/config"
	"github.com/roach88/picoparse/internal/engine"
	"github.com/roach88/picoparse/internal/grammar"
	"github.com/roach88/picoparse/internal/ir"
	"github.com/roach88/picoparse/internal/store"
	"github.com/roach88/picoparse/internal/text"
	"github.com/roach88/picoparse/internal/trace"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	Database   string
	Whitespace string
	Trace      bool
	Render     bool
	MaxSteps   int

	// IDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs store.IDGenerator
}

// ParseResult is the outcome of one parse command.
type ParseResult struct {
	Grammar     string   `json:"grammar"`
	Source      string   `json:"source"`
	OK          bool     `json:"ok"`
	Value       ir.Value `json:"value,omitempty"`
	Rendered    string   `json:"rendered,omitempty"`
	Remaining   string   `json:"remaining"`
	Offset      *int     `json:"offset,omitempty"`
	Line        int      `json:"line,omitempty"`
	Column      int      `json:"column,omitempty"`
	Description string   `json:"description,omitempty"`
	RunID       string   `json:"run_id,omitempty"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse [grammar] [file|-]",
		Short: "Parse a file with a grammar",
		Long: `Parse a file (or stdin) with a registered grammar and print the result.

The grammar may be omitted when the file extension selects one (.lam, .xml)
or the config file names a default. With --db the run and its full engine
trace are recorded for the trace and replay commands.

Exit codes:
  0 - Input parsed
  1 - Parse failed
  2 - Command error (unknown grammar, unreadable input, etc.)

Examples:
  picoparse parse lambda prog.lam
  picoparse parse doc.xml --render
  echo 'let x = 1 in x' | picoparse parse lambda --db runs.db
  picoparse parse lambda prog.lam --format json`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.Whitespace, "whitespace", "", "characters skipped between tokens")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "log engine events at debug level")
	cmd.Flags().BoolVar(&opts.Render, "render", false, "print the result as source text")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "abort after this many labelled parser steps (0 = unlimited)")

	return cmd
}

func runParse(ctx context.Context, opts *ParseOptions, args []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.settings().Merge(configFromParseFlags(opts))
	logger := opts.logger(cmd.ErrOrStderr())

	g, source, err := resolveParseArgs(args, cfg.Grammar)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot pick grammar", err)
	}
	g = g.WithWhitespace(cfg.Whitespace)

	input, err := readInput(source, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	var (
		st      *store.Store
		clock   *trace.Clock
		tracers []engine.Tracer
		rec     *trace.Recorder
	)
	if cfg.Database != "" {
		st, err = store.Open(cfg.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		last, err := st.LastSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read database", err)
		}
		clock = trace.NewClockAt(last)
		rec = trace.NewRecorder(clock)
		tracers = append(tracers, rec)
	}
	if cfg.Trace {
		tracers = append(tracers, trace.NewSlogTracer(logger))
	}

	// The run takes its seq before any event is stamped.
	var runSeq int64
	if clock != nil {
		runSeq = clock.Next()
	}

	logger.Debug("parsing", "grammar", g.Name, "source", source, "runes", len(text.Runes(input)))
	runOpts := []engine.RunOption{engine.WithMaxSteps(opts.MaxSteps)}
	if len(tracers) > 0 {
		runOpts = append(runOpts, engine.WithTracer(trace.Multi(tracers...)))
	}
	out, err := store.OutcomeOf(g.Parse(input, runOpts...))
	if err != nil {
		return WrapExitError(ExitCommandError, "parse aborted", err)
	}

	result := ParseResult{
		Grammar:     g.Name,
		Source:      source,
		OK:          out.OK,
		Value:       out.Value,
		Remaining:   out.Remaining,
		Description: out.Description,
	}
	if !out.OK {
		// Set on every failure, including one at offset 0.
		result.Offset = &out.Offset
		result.Line, result.Column = text.Position(input, out.Offset)
	}
	if out.OK && opts.Render {
		rendered, err := g.Render(out.Value)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to render result", err)
		}
		result.Rendered = rendered
	}

	if st != nil {
		ids := opts.IDs
		if ids == nil {
			ids = store.UUIDv7Generator{}
		}
		run, err := store.NewRun(ids.Generate(), runSeq, g.Name, input, out)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build run", err)
		}
		if err := st.WriteRun(ctx, run); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		if err := st.WriteTrace(ctx, run.ID, rec.Records()); err != nil {
			return WrapExitError(ExitCommandError, "failed to record trace", err)
		}
		result.RunID = run.ID
		logger.Info("run recorded", "run_id", run.ID, "seq", run.Seq, "events", rec.Len())
	}

	if opts.Format == "json" {
		return outputParseJSON(cmd, result)
	}
	return outputParseText(cmd, result)
}

func configFromParseFlags(opts *ParseOptions) config.Config {
	return config.Config{
		Database:   opts.Database,
		Whitespace: opts.Whitespace,
		Trace:      opts.Trace,
	}
}

// resolveParseArgs picks the grammar and input source from the arguments:
// [grammar] [file|-]. A lone argument is a grammar if one is registered
// under that name, otherwise a file whose extension selects the grammar.
func resolveParseArgs(args []string, fallback string) (grammar.Grammar, string, error) {
	switch len(args) {
	case 2:
		g, err := grammar.Lookup(args[0])
		return g, args[1], err
	case 1:
		if g, err := grammar.Lookup(args[0]); err == nil {
			return g, "-", nil
		}
		if g, ok := grammar.ForExtension(args[0]); ok {
			return g, args[0], nil
		}
		if fallback == "" {
			return grammar.Grammar{}, "", fmt.Errorf("no grammar for %q: name one or set grammar in the config", args[0])
		}
		g, err := grammar.Lookup(fallback)
		return g, args[0], err
	default:
		if fallback == "" {
			return grammar.Grammar{}, "", fmt.Errorf("no grammar given and none set in the config")
		}
		g, err := grammar.Lookup(fallback)
		return g, "-", err
	}
}

func readInput(source string, stdin io.Reader) (string, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(source)
	return string(data), err
}

func sourceName(source string) string {
	if source == "-" {
		return "<stdin>"
	}
	return source
}

// outputParseJSON outputs the parse result as JSON.
func outputParseJSON(cmd *cobra.Command, result ParseResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
		RunID:  result.RunID,
	}
	if !result.OK {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeNoMatch,
			Message: result.Description,
		}
	}

	if err := writeResponse(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	if !result.OK {
		return NewExitError(ExitFailure, "parse failed")
	}
	return nil
}

// outputParseText prints the result value (or its rendering) on success and
// a file:line:col diagnostic on failure.
func outputParseText(cmd *cobra.Command, result ParseResult) error {
	w := cmd.OutOrStdout()

	if !result.OK {
		fmt.Fprintf(w, "%s:%d:%d: %s\n", sourceName(result.Source), result.Line, result.Column, result.Description)
		return NewExitError(ExitFailure, "parse failed")
	}

	if result.Rendered != "" {
		fmt.Fprintln(w, result.Rendered)
	} else {
		data, err := ir.MarshalCanonical(result.Value)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode result", err)
		}
		fmt.Fprintln(w, string(data))
	}
	if result.Remaining != "" {
		fmt.Fprintf(w, "remaining: %q\n", result.Remaining)
	}
	if result.RunID != "" {
		fmt.Fprintf(w, "run: %s\n", result.RunID)
	}
	return nil
}
