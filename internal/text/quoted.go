package text

import (
	"github.com/roach88/picoparse/internal/engine"
)

var escapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'0':  0,
	'\\': '\\',
}

// Quoted parses a string delimited by any rune in quotes and returns its
// contents with backslash escapes resolved. The closing quote must match the
// opening one. An unknown escape yields the escaped rune itself, so \" and \'
// need no table entry.
//
// Once the opening quote has matched the string is committed: an
// unterminated string is a syntax error, not an alternative that failed.
func Quoted(quotes string) engine.Parser[rune, string] {
	open := engine.OneOf([]rune(quotes)...)
	return engine.Tri(func(s *engine.State[rune]) (string, error) {
		q, err := open(s)
		if err != nil {
			return "", err
		}
		s.Commit()

		var out []rune
		for {
			r, ok := s.Cursor().First()
			switch {
			case !ok:
				return "", s.Failf("expected closing %c, got end of input", q)
			case r == q:
				if _, err := engine.AnyToken[rune]()(s); err != nil {
					return "", err
				}
				return string(out), nil
			case r == '\\':
				if _, err := engine.AnyToken[rune]()(s); err != nil {
					return "", err
				}
				esc, err := engine.AnyToken[rune]()(s)
				if err != nil {
					return "", s.Fail("expected escape character, got end of input")
				}
				if mapped, ok := escapes[esc]; ok {
					esc = mapped
				}
				out = append(out, esc)
			default:
				if _, err := engine.AnyToken[rune]()(s); err != nil {
					return "", err
				}
				out = append(out, r)
			}
		}
	})
}
