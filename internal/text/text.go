// Package text configures the engine for character input.
//
// Input strings are split into runes; every parser here is an
// engine.Parser[rune, V]. Offsets reported by failures are rune offsets, and
// Position converts them to line and column for display.
package text

import (
	"strconv"
	"unicode"

	"github.com/roach88/picoparse/internal/engine"
)

// DefaultWhitespace is the set skipped by Whitespace.
const DefaultWhitespace = " \t\r\n"

// Runes splits s into the token slice the engine parses.
func Runes(s string) []rune {
	return []rune(s)
}

// RunText runs p over s and returns the unconsumed input as a string.
func RunText[V any](p engine.Parser[rune, V], s string, opts ...engine.RunOption) (V, string, error) {
	v, rest, err := engine.Run(p, Runes(s), opts...)
	return v, string(rest.Remaining()), err
}

// WhitespaceOf skips zero or more runes from set.
func WhitespaceOf(set string) engine.Parser[rune, []rune] {
	return engine.Many(engine.OneOf([]rune(set)...))
}

// Whitespace skips zero or more runes from DefaultWhitespace.
func Whitespace() engine.Parser[rune, []rune] {
	return WhitespaceOf(DefaultWhitespace)
}

// Whitespace1 skips one or more runes from DefaultWhitespace.
func Whitespace1() engine.Parser[rune, []rune] {
	return engine.Desc("whitespace", engine.Many1(engine.OneOf([]rune(DefaultWhitespace)...)))
}

// Newline matches "\n" or "\r\n".
func Newline() engine.Parser[rune, string] {
	return engine.Desc("newline", engine.Choice(Literal("\r\n"), Literal("\n")))
}

// Lexeme skips leading whitespace, then runs p.
func Lexeme[V any](p engine.Parser[rune, V]) engine.Parser[rune, V] {
	return engine.Cue(Whitespace(), p)
}

// Digit matches one decimal digit.
func Digit() engine.Parser[rune, rune] {
	return engine.SatisfiesDesc("digit", unicode.IsDigit)
}

// Letter matches one letter.
func Letter() engine.Parser[rune, rune] {
	return engine.SatisfiesDesc("letter", unicode.IsLetter)
}

// IsIdentRune reports whether r may appear inside an identifier.
func IsIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// AsString joins the runes produced by p.
func AsString(p engine.Parser[rune, []rune]) engine.Parser[rune, string] {
	return engine.Map(p, func(rs []rune) string { return string(rs) })
}

// Literal matches s as a unit: on mismatch nothing is consumed.
func Literal(s string) engine.Parser[rune, string] {
	return engine.Tri(engine.Map(engine.String(Runes(s)), func([]rune) string { return s }))
}

// CaselessString matches s ignoring case and returns the input as written.
func CaselessString(s string) engine.Parser[rune, string] {
	want := Runes(s)
	label := strconv.Quote(s)
	return engine.Tri(func(st *engine.State[rune]) (string, error) {
		start := st.Snapshot()
		for _, w := range want {
			if _, err := engine.SatisfiesDesc(label, func(r rune) bool {
				return unicode.ToLower(r) == unicode.ToLower(w)
			})(st); err != nil {
				return "", err
			}
		}
		return string(st.Cursor().Between(start)), nil
	})
}

// Position converts a rune offset in input to a 1-based line and column.
// Offsets past the end report the position just after the last rune.
func Position(input string, offset int) (line, col int) {
	line, col = 1, 1
	for i, r := range Runes(input) {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
