package text

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/roach88/picoparse/internal/engine"
)

// KeywordSet matches any of a fixed set of words at the cursor.
//
// Candidates are the overlapping matches of an Aho-Corasick automaton over
// the next few runes that start at the cursor, so the cost of a match
// attempt does not grow with the number of words. A word only matches as a whole identifier: it must not be followed
// by an identifier rune.
type KeywordSet struct {
	words    []string
	maxRunes int
	auto     *ahocorasick.Automaton
}

// NewKeywordSet compiles words into a KeywordSet.
func NewKeywordSet(words ...string) (*KeywordSet, error) {
	if len(words) == 0 {
		return nil, fmt.Errorf("keyword set is empty")
	}

	sorted := slices.Clone(words)
	slices.SortFunc(sorted, func(a, b string) int {
		if n := len([]rune(b)) - len([]rune(a)); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})

	builder := ahocorasick.NewBuilder()
	maxRunes := 0
	for _, w := range sorted {
		if w == "" {
			return nil, fmt.Errorf("keyword set contains an empty word")
		}
		builder.AddPattern([]byte(w))
		if n := len([]rune(w)); n > maxRunes {
			maxRunes = n
		}
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("compile keyword set: %w", err)
	}

	return &KeywordSet{words: sorted, maxRunes: maxRunes, auto: auto}, nil
}

// Keyword is NewKeywordSet(words...).Match() and panics if the set cannot
// be compiled. Intended for grammar variables initialised from literals.
func Keyword(words ...string) engine.Parser[rune, string] {
	ks, err := NewKeywordSet(words...)
	if err != nil {
		panic(err)
	}
	return ks.Match()
}

// Words returns the words in the set, longest first.
func (ks *KeywordSet) Words() []string {
	return slices.Clone(ks.words)
}

// Contains reports whether word is in the set.
func (ks *KeywordSet) Contains(word string) bool {
	return slices.Contains(ks.words, word)
}

// Match returns a parser consuming the longest word of the set at the cursor
// that is not followed by an identifier rune.
func (ks *KeywordSet) Match() engine.Parser[rune, string] {
	label := "one of " + strings.Join(ks.words, ", ")
	return func(s *engine.State[rune]) (string, error) {
		rest := s.Cursor().Remaining()
		window := rest[:min(len(rest), ks.maxRunes)]

		// Every word that starts at the cursor, longest first.
		var found []ahocorasick.Match
		for _, m := range ks.auto.FindAllOverlapping([]byte(string(window))) {
			if m.Start == 0 {
				found = append(found, m)
			}
		}
		slices.SortStableFunc(found, func(a, b ahocorasick.Match) int { return b.Len() - a.Len() })

		for _, m := range found {
			word := ks.auto.Pattern(m.PatternID)
			n := utf8.RuneCount(word)
			if n < len(rest) && IsIdentRune(rest[n]) {
				continue
			}
			if _, err := engine.NOf(engine.AnyToken[rune](), n)(s); err != nil {
				return "", err
			}
			return string(word), nil
		}
		return "", s.Failf("expected %s", label)
	}
}
