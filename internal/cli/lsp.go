package cli

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/roach88/picoparse/internal/grammar"
	"github.com/roach88/picoparse/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Run a language server that reports parse errors as diagnostics",
		Long: `Run a Language Server Protocol server on stdin/stdout.

Open documents are parsed on open, change and save with the grammar their
file extension selects, or the config grammar for other files. A parse
failure is published as one error diagnostic at the failure position.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLSP(rootOpts)
		},
	}
}

func runLSP(opts *RootOptions) error {
	cfg := opts.settings()

	verbosity := 0
	if opts.Verbose {
		verbosity = 2
	}
	// stdout carries the protocol, so commonlog writes to stderr.
	commonlog.Configure(verbosity, nil)

	serverOpts := []lsp.Option{lsp.WithWhitespace(cfg.Whitespace)}
	if cfg.Grammar != "" {
		g, err := grammar.Lookup(cfg.Grammar)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid default grammar", err)
		}
		serverOpts = append(serverOpts, lsp.WithFallbackGrammar(g))
	}

	s := lsp.NewServer(Version, opts.Verbose, serverOpts...)
	if err := s.RunStdio(); err != nil {
		return WrapExitError(ExitCommandError, "language server stopped", err)
	}
	return nil
}
