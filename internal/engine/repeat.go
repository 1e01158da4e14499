package engine

// Until is the result of ManyUntil: the collected items and the terminator's
// value.
type Until[V, E any] struct {
	Items []V
	End   E
}

// Many runs p until it fails Recoverable and returns the collected values,
// possibly none. The cursor is rewound to before the failed attempt.
// A Committed failure aborts the whole repetition, as does a Recoverable one
// from an attempt that ran Commit.
//
// p should consume at least one token on success. A success that consumes
// nothing is collected once and ends the loop.
func Many[T, V any](p Parser[T, V]) Parser[T, []V] {
	return func(s *State[T]) ([]V, error) {
		out := []V{}
		for {
			start := s.Snapshot()
			was := s.Committed()
			v, err := p(s)
			if err != nil {
				if !IsRecoverable(err) {
					return nil, err
				}
				f, _ := AsFailure(err)
				if cut, ok := s.cut(was, f); ok {
					return nil, cut
				}
				s.Restore(start)
				return out, nil
			}
			out = append(out, v)
			if s.cursor.offset == start.offset {
				return out, nil
			}
		}
	}
}

// Many1 is Many requiring at least one match. If the first attempt fails,
// that failure is returned.
func Many1[T, V any](p Parser[T, V]) Parser[T, []V] {
	return func(s *State[T]) ([]V, error) {
		first, err := p(s)
		if err != nil {
			return nil, err
		}
		rest, err := Many(p)(s)
		if err != nil {
			return nil, err
		}
		return append([]V{first}, rest...), nil
	}
}

// ManyUntil collects p until terminator matches.
//
// Each round tries terminator first, rewinding if it fails Recoverable, and
// then p. If neither matches the repetition stalls and fails with whichever
// failure got further into the input, preferring p's on a tie. Either one
// failing Recoverable after running Commit ends the repetition with a
// Committed failure.
func ManyUntil[T, V, E any](p Parser[T, V], terminator Parser[T, E]) Parser[T, Until[V, E]] {
	return func(s *State[T]) (Until[V, E], error) {
		return manyUntil(s, p, terminator, []V{})
	}
}

// ManyUntil1 is ManyUntil requiring at least one p before the terminator.
func ManyUntil1[T, V, E any](p Parser[T, V], terminator Parser[T, E]) Parser[T, Until[V, E]] {
	return func(s *State[T]) (Until[V, E], error) {
		first, err := p(s)
		if err != nil {
			return Until[V, E]{}, err
		}
		return manyUntil(s, p, terminator, []V{first})
	}
}

func manyUntil[T, V, E any](s *State[T], p Parser[T, V], terminator Parser[T, E], items []V) (Until[V, E], error) {
	for {
		start := s.Snapshot()
		was := s.Committed()
		end, termErr := terminator(s)
		if termErr == nil {
			return Until[V, E]{Items: items, End: end}, nil
		}
		if !IsRecoverable(termErr) {
			return Until[V, E]{}, termErr
		}
		tf, _ := AsFailure(termErr)
		if cut, ok := s.cut(was, tf); ok {
			return Until[V, E]{}, cut
		}
		s.Restore(start)

		v, err := p(s)
		if err != nil {
			if IsRecoverable(err) {
				pf, _ := AsFailure(err)
				if cut, ok := s.cut(was, pf); ok {
					return Until[V, E]{}, cut
				}
				if tf.Offset > pf.Offset {
					s.Restore(start)
					return Until[V, E]{}, tf
				}
			}
			return Until[V, E]{}, err
		}
		items = append(items, v)
		if s.cursor.offset == start.offset {
			return Until[V, E]{}, tf
		}
	}
}

// NOf runs p exactly n times. The first failure is returned.
func NOf[T, V any](p Parser[T, V], n int) Parser[T, []V] {
	return func(s *State[T]) ([]V, error) {
		if n <= 0 {
			return []V{}, nil
		}
		out := make([]V, 0, n)
		for i := 0; i < n; i++ {
			v, err := p(s)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
}

// Sep1 parses one or more p separated by sep, keeping only p's values.
// A separator not followed by p is left unconsumed.
func Sep1[T, V, S any](p Parser[T, V], sep Parser[T, S]) Parser[T, []V] {
	return func(s *State[T]) ([]V, error) {
		first, err := p(s)
		if err != nil {
			return nil, err
		}
		rest, err := Many(Tri(Cue(sep, p)))(s)
		if err != nil {
			return nil, err
		}
		return append([]V{first}, rest...), nil
	}
}

// Sep parses zero or more p separated by sep.
func Sep[T, V, S any](p Parser[T, V], sep Parser[T, S]) Parser[T, []V] {
	return Optional(Sep1(p, sep), []V{})
}
