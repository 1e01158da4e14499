// Package grammar is the registry of grammars the tooling can run by name.
package grammar

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/picoparse/internal/engine"
	"github.com/roach88/picoparse/internal/grammar/lambda"
	"github.com/roach88/picoparse/internal/grammar/xml"
	"github.com/roach88/picoparse/internal/ir"
	"github.com/roach88/picoparse/internal/text"
)

// Grammar is a named, runnable grammar over text.
type Grammar struct {
	Name        string
	Description string
	Extensions  []string

	build      func(whitespace string) engine.Parser[rune, ir.Value]
	render     func(ir.Value) (string, error)
	whitespace string
}

// WithWhitespace returns a copy of g that skips the runes in set between
// tokens. An empty set restores the default.
func (g Grammar) WithWhitespace(set string) Grammar {
	g.whitespace = set
	return g
}

// Parser builds the top-level parser.
func (g Grammar) Parser() engine.Parser[rune, ir.Value] {
	return g.build(g.whitespace)
}

// Parse runs the grammar over input and returns the result value and the
// unconsumed text. Failures are *engine.NoMatchError.
func (g Grammar) Parse(input string, opts ...engine.RunOption) (ir.Value, string, error) {
	return text.RunText(g.Parser(), input, opts...)
}

// Render prints a result value of this grammar back as source text that
// parses to an equal value.
func (g Grammar) Render(v ir.Value) (string, error) {
	return g.render(v)
}

var registry = map[string]Grammar{
	"lambda": {
		Name:        "lambda",
		Description: "small functional language: let, fn, where, def",
		Extensions:  []string{".lam"},
		build: func(ws string) engine.Parser[rune, ir.Value] {
			return lambda.New(ws).Program()
		},
		render: lambda.Render,
	},
	"xml": {
		Name:        "xml",
		Description: "elements, attributes and text with entity references",
		Extensions:  []string{".xml"},
		build: func(ws string) engine.Parser[rune, ir.Value] {
			return xml.New(ws).Document()
		},
		render: xml.Render,
	},
}

// UnknownGrammarError is returned by Lookup for unregistered names.
type UnknownGrammarError struct {
	Name string
}

func (e *UnknownGrammarError) Error() string {
	return fmt.Sprintf("unknown grammar %q (available: %s)", e.Name, strings.Join(Names(), ", "))
}

// Lookup returns the grammar registered under name.
func Lookup(name string) (Grammar, error) {
	g, ok := registry[name]
	if !ok {
		return Grammar{}, &UnknownGrammarError{Name: name}
	}
	return g, nil
}

// Names returns the registered grammar names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForExtension picks a grammar by the extension of path.
func ForExtension(path string) (Grammar, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return Grammar{}, false
	}
	for _, name := range Names() {
		g := registry[name]
		for _, e := range g.Extensions {
			if e == ext {
				return g, true
			}
		}
	}
	return Grammar{}, false
}
