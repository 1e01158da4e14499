package engine

import "fmt"

// AnyToken consumes and returns the next token.
func AnyToken[T any]() Parser[T, T] {
	return func(s *State[T]) (T, error) {
		tok, ok := s.cursor.First()
		if !ok {
			var zero T
			return zero, s.Fail("expected any token, got end of input")
		}
		s.advance(1)
		return tok, nil
	}
}

// Satisfies consumes the next token if pred holds for it.
// It never consumes on failure.
func Satisfies[T any](pred func(T) bool) Parser[T, T] {
	return SatisfiesDesc("token satisfying predicate", pred)
}

// SatisfiesDesc is Satisfies with a label for failure messages.
func SatisfiesDesc[T any](label string, pred func(T) bool) Parser[T, T] {
	return func(s *State[T]) (T, error) {
		tok, ok := s.cursor.First()
		if !ok || !pred(tok) {
			var zero T
			return zero, s.Failf("expected %s, got %s", label, describeNext(s.cursor))
		}
		s.advance(1)
		return tok, nil
	}
}

// OneOf consumes the next token if it is in set. An empty set never matches.
func OneOf[T comparable](set ...T) Parser[T, T] {
	members := tokenSet(set)
	return SatisfiesDesc("one of "+describeSeq(set), func(tok T) bool {
		_, ok := members[tok]
		return ok
	})
}

// NotOneOf consumes the next token if it is not in set.
// With an empty set it matches any token.
func NotOneOf[T comparable](set ...T) Parser[T, T] {
	members := tokenSet(set)
	return SatisfiesDesc("none of "+describeSeq(set), func(tok T) bool {
		_, ok := members[tok]
		return !ok
	})
}

func tokenSet[T comparable](set []T) map[T]struct{} {
	m := make(map[T]struct{}, len(set))
	for _, tok := range set {
		m[tok] = struct{}{}
	}
	return m
}

// Peek returns the next token without consuming it.
func Peek[T any]() Parser[T, T] {
	return func(s *State[T]) (T, error) {
		tok, ok := s.cursor.First()
		if !ok {
			return tok, s.Fail("expected any token, got end of input")
		}
		return tok, nil
	}
}

// EOF succeeds only when the input is exhausted.
func EOF[T any]() Parser[T, struct{}] {
	return func(s *State[T]) (struct{}, error) {
		if !s.cursor.AtEnd() {
			return struct{}{}, s.Failf("expected end of input, got %s", describeNext(s.cursor))
		}
		return struct{}{}, nil
	}
}

// String consumes tokens matching seq one by one.
//
// On mismatch the tokens already matched stay consumed and the failure is
// reported at the mismatch offset. Wrap in Tri for all-or-nothing matching.
func String[T comparable](seq []T) Parser[T, []T] {
	want := describeSeq(seq)
	return func(s *State[T]) ([]T, error) {
		for _, expected := range seq {
			tok, ok := s.cursor.First()
			if !ok || tok != expected {
				return nil, s.Failf("expected %s, got %s", want, describeNext(s.cursor))
			}
			s.advance(1)
		}
		return seq, nil
	}
}

// Fail always fails Recoverable at the current offset.
func Fail[T, V any](description string) Parser[T, V] {
	return func(s *State[T]) (V, error) {
		var zero V
		return zero, s.Fail(description)
	}
}

// Succeed always succeeds with v, consuming nothing.
func Succeed[T, V any](v V) Parser[T, V] {
	return func(*State[T]) (V, error) {
		return v, nil
	}
}

// Remaining consumes and returns the rest of the input.
func Remaining[T any]() Parser[T, []T] {
	return func(s *State[T]) ([]T, error) {
		rest := s.cursor.Remaining()
		s.advance(len(rest))
		return rest, nil
	}
}

// Desc labels p for diagnostics and tracing.
//
// A Recoverable failure that p reports at the offset where it started is
// rewritten to "expected <label>, got <next token>". Failures deeper into the
// input keep their own description, as does every Committed failure.
func Desc[T, V any](label string, p Parser[T, V]) Parser[T, V] {
	return func(s *State[T]) (V, error) {
		start := s.cursor
		if err := s.quota.check(label, start.offset); err != nil {
			var zero V
			return zero, err
		}
		s.trace(Event{Kind: EventEnter, Label: label, Offset: start.offset})

		v, err := p(s)
		if err != nil {
			s.trace(Event{Kind: EventFail, Label: label, Offset: s.cursor.offset})
			if f, ok := AsFailure(err); ok && f.Severity == Recoverable && f.Offset == start.offset {
				return v, &Failure{
					Severity:    Recoverable,
					Offset:      f.Offset,
					Description: fmt.Sprintf("expected %s, got %s", label, describeNext(start)),
				}
			}
			return v, err
		}

		s.trace(Event{Kind: EventLeave, Label: label, Offset: s.cursor.offset})
		return v, nil
	}
}
