package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/picoparse/internal/grammar"
)

// GrammarInfo describes one registered grammar.
type GrammarInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Extensions  []string `json:"extensions"`
}

// NewGrammarsCommand creates the grammars command.
func NewGrammarsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "grammars",
		Short:         "List the registered grammars",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrammars(rootOpts, cmd)
		},
	}
}

func runGrammars(opts *RootOptions, cmd *cobra.Command) error {
	names := grammar.Names()
	infos := make([]GrammarInfo, 0, len(names))
	for _, name := range names {
		g, err := grammar.Lookup(name)
		if err != nil {
			return WrapExitError(ExitCommandError, "grammar registry is inconsistent", err)
		}
		infos = append(infos, GrammarInfo{
			Name:        g.Name,
			Description: g.Description,
			Extensions:  append([]string{}, g.Extensions...),
		})
	}

	if opts.Format == "json" {
		return writeResponse(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: infos})
	}

	w := cmd.OutOrStdout()
	for _, info := range infos {
		fmt.Fprintf(w, "%-8s %-30s %s\n", info.Name, strings.Join(info.Extensions, ","), info.Description)
	}
	return nil
}
