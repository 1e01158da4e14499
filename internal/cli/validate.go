package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/picoparse/internal/config"
	"github.com/roach88/picoparse/internal/harness"
)

// ValidationError is one problem found in a scenario or config file.
type ValidationError struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenarios-dir|config.cue>",
		Short: "Validate scenario or config files without running them",
		Long: `Validate YAML scenarios or a CUE config file without parsing anything.

For a directory, every .yaml/.yml scenario under it is loaded with strict
field checking: unknown fields, missing names, unknown grammars and
malformed assertions are reported. For a .cue file, the file is checked
against the config schema.

Exit codes:
  0 - All files valid
  1 - One or more files invalid
  2 - Command error (path not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	info, err := os.Stat(path)
	if err != nil {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("path not found: %s", path), nil)
	}

	var (
		files int
		errs  []ValidationError
	)
	if !info.IsDir() && filepath.Ext(path) == ".cue" {
		files = 1
		formatter.VerboseLog("Validating config: %s", path)
		if verr := validateConfig(path); verr != nil {
			errs = append(errs, *verr)
		}
	} else {
		files, errs, err = validateScenarios(path, formatter)
		if err != nil {
			return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
	}

	if files == 0 {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("no scenario files found in %s", path), nil)
	}
	if len(errs) > 0 {
		return outputValidationErrors(formatter, files, errs)
	}
	return outputValidateSuccess(formatter, files)
}

// validateScenarios loads every scenario under dir.
func validateScenarios(dir string, formatter *OutputFormatter) (int, []ValidationError, error) {
	paths, err := harness.FindScenarios(dir, "")
	if err != nil {
		return 0, nil, err
	}

	var errs []ValidationError
	names := make(map[string]string, len(paths))
	for _, path := range paths {
		formatter.VerboseLog("Validating scenario: %s", path)

		scenario, err := harness.LoadScenario(path)
		if err != nil {
			errs = append(errs, ValidationError{
				File:    path,
				Code:    ErrCodeScenario,
				Message: err.Error(),
			})
			continue
		}

		// Golden files are keyed by name, so names must be unique.
		if prev, ok := names[scenario.Name]; ok {
			errs = append(errs, ValidationError{
				File:    path,
				Code:    ErrCodeScenario,
				Message: fmt.Sprintf("duplicate scenario name %q (also in %s)", scenario.Name, prev),
			})
			continue
		}
		names[scenario.Name] = path
	}
	return len(paths), errs, nil
}

func validateConfig(path string) *ValidationError {
	_, err := config.Load(path)
	if err == nil {
		return nil
	}

	verr := &ValidationError{File: path, Code: ErrCodeGeneric, Message: err.Error()}
	var cerr *config.ConfigError
	if errors.As(err, &cerr) {
		verr.Message = fmt.Sprintf("%s: %s", cerr.Field, cerr.Message)
		verr.Line = getLineFromCuePos(cerr.Pos)
	}
	return verr
}

// getLineFromCuePos extracts line number from a token.Pos.
func getLineFromCuePos(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, files int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Files: files})
	}

	fmt.Fprintf(formatter.Writer, "\u2713 %d file(s) valid\n", files)
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, files int, errs []ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Files:  files,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := writeResponse(formatter.Writer, response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "\u2717 Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", err.File, err.Line)
		} else {
			fmt.Fprintln(formatter.Writer, err.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
