// Package config loads the optional picoparse.cue configuration file.
//
// The file is plain CUE unified with the embedded #Config schema, so unknown
// fields and wrongly typed values are rejected with a file position, and
// omitted fields take the schema defaults:
//
//	grammar:  "xml"
//	database: "runs.db"
//	trace:    true
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/picoparse/internal/grammar"
)

// DefaultFile is the config file picked up from the working directory when
// no --config flag is given.
const DefaultFile = "picoparse.cue"

//go:embed schema.cue
var schemaSource string

// Config holds the settings commands fall back to when a flag is not set.
type Config struct {
	Grammar    string `json:"grammar"`
	Database   string `json:"database"`
	Trace      bool   `json:"trace"`
	Whitespace string `json:"whitespace"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{}
}

// ConfigError reports an invalid configuration file.
type ConfigError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, path)
}

// Resolve picks the config for a command. An explicit path must exist.
// Without one, DefaultFile is loaded if present and Default is returned
// otherwise.
func Resolve(explicit string) (*Config, error) {
	if explicit != "" {
		return Load(explicit)
	}
	cfg, err := Load(DefaultFile)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse validates CUE source against the schema. filename is only used in
// error positions.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}

	if cfg.Grammar != "" {
		if _, err := grammar.Lookup(cfg.Grammar); err != nil {
			return nil, &ConfigError{
				Field:   "grammar",
				Message: err.Error(),
				Pos:     v.LookupPath(cue.ParsePath("grammar")).Pos(),
			}
		}
	}

	return &cfg, nil
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ConfigError{Field: "cue", Message: err.Error()}
	}

	first := errs[0]
	cerr := &ConfigError{Field: "cue", Message: first.Error()}
	if path := first.Path(); len(path) > 0 {
		cerr.Field = path[len(path)-1]
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		cerr.Pos = positions[0]
	}
	return cerr
}

// Merge returns cfg with every non-zero field of override applied.
func (c *Config) Merge(override Config) *Config {
	merged := *c
	if override.Grammar != "" {
		merged.Grammar = override.Grammar
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Trace {
		merged.Trace = true
	}
	if override.Whitespace != "" {
		merged.Whitespace = override.Whitespace
	}
	return &merged
}
