package engine

import "unicode"

// runText runs p over the runes of input and returns the remainder as a string.
func runText[V any](p Parser[rune, V], input string, opts ...RunOption) (V, string, error) {
	v, rest, err := Run(p, []rune(input), opts...)
	return v, string(rest.Remaining()), err
}

// parseWith drives p over input on a hand-made state so tests can inspect
// the raw failure and the cursor.
func parseWith[V any](p Parser[rune, V], input string) (V, *State[rune], error) {
	s := NewState([]rune(input))
	v, err := p(s)
	return v, s, err
}

func identChar() Parser[rune, rune] {
	return SatisfiesDesc("identifier character", func(r rune) bool {
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

// keyword matches word as a whole identifier, committing once the word
// itself has matched.
func keyword(word string) Parser[rune, string] {
	return Tri(func(s *State[rune]) (string, error) {
		if _, err := String([]rune(word))(s); err != nil {
			return "", err
		}
		s.Commit()
		if _, err := NotFollowedBy(identChar())(s); err != nil {
			return "", err
		}
		return word, nil
	})
}

func identifier() Parser[rune, string] {
	return Map(Many1(identChar()), func(rs []rune) string { return string(rs) })
}

type recorder struct {
	events []Event
}

func (r *recorder) Trace(ev Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}
