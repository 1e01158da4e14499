package engine

// Tri runs p as an atomic unit.
//
// On success the advanced cursor is kept. On a Recoverable failure the cursor
// is restored to where p started and the failure is returned unchanged, so an
// enclosing Choice can try its next alternative. If Commit ran inside p's
// scope, a Recoverable failure is escalated to Committed instead and the
// cursor stays at the failure. Committed failures and non-engine errors pass
// through without restoring.
func Tri[T, V any](p Parser[T, V]) Parser[T, V] {
	return func(s *State[T]) (V, error) {
		start := s.Snapshot()
		s.pushScope()
		v, err := p(s)
		committed := s.popScope()
		if err == nil {
			return v, nil
		}

		f, ok := AsFailure(err)
		if !ok || f.Severity == Committed {
			return v, err
		}
		if committed {
			s.trace(Event{Kind: EventEscalate, Offset: f.Offset})
			return v, f.escalated()
		}
		s.Restore(start)
		return v, err
	}
}

// Commit marks the innermost Tri scope as committed, consuming nothing.
func Commit[T any]() Parser[T, struct{}] {
	return func(s *State[T]) (struct{}, error) {
		s.Commit()
		return struct{}{}, nil
	}
}

// Choice tries each alternative in order from the same starting position and
// returns the first success.
//
// A Recoverable failure rewinds the cursor and moves on. A Committed failure
// (or any non-engine error) stops the search immediately and is returned
// without rewinding. When every alternative fails Recoverable, the failure
// reported is the one that got furthest into the input; ties go to the
// earliest alternative.
//
// Choice is cut-aware: an alternative that runs Commit in the enclosing scope
// and then fails Recoverable ends the search, and its failure is escalated to
// Committed.
func Choice[T, V any](alternatives ...Parser[T, V]) Parser[T, V] {
	return func(s *State[T]) (V, error) {
		var zero V
		if len(alternatives) == 0 {
			return zero, s.Fail("no alternatives")
		}

		start := s.Snapshot()
		var best *Failure
		for _, p := range alternatives {
			was := s.Committed()
			v, err := p(s)
			if err == nil {
				return v, nil
			}
			if !IsRecoverable(err) {
				return zero, err
			}
			f, _ := AsFailure(err)
			if cut, ok := s.cut(was, f); ok {
				return zero, cut
			}
			if best == nil || f.Offset > best.Offset {
				best = f
			}
			s.Restore(start)
		}
		return zero, best
	}
}

// Optional runs p and returns def if p fails Recoverable.
// Committed failures from p propagate, and so does a cut inside p.
func Optional[T, V any](p Parser[T, V], def V) Parser[T, V] {
	return Choice(p, Succeed[T](def))
}

// NotFollowedBy succeeds without consuming input if p fails Recoverable at
// this position. If p succeeds, NotFollowedBy fails Recoverable at the
// original offset and whatever p consumed is discarded. Committed failures
// from p propagate, as does a Recoverable failure raised after p ran Commit.
// A Commit made by a p that matched is discarded along with its input.
func NotFollowedBy[T, V any](p Parser[T, V]) Parser[T, struct{}] {
	return func(s *State[T]) (struct{}, error) {
		start := s.Snapshot()
		was := s.Committed()
		_, err := p(s)
		if err == nil {
			s.Restore(start)
			s.resetCommit(was)
			return struct{}{}, s.Failf("unexpected %s", describeNext(start))
		}
		if !IsRecoverable(err) {
			return struct{}{}, err
		}
		f, _ := AsFailure(err)
		if cut, ok := s.cut(was, f); ok {
			return struct{}{}, cut
		}
		s.Restore(start)
		return struct{}{}, nil
	}
}

// Lookahead runs p and rewinds the cursor on success, returning p's value.
// Failures are returned as Tri would return them.
func Lookahead[T, V any](p Parser[T, V]) Parser[T, V] {
	return func(s *State[T]) (V, error) {
		start := s.Snapshot()
		v, err := Tri(p)(s)
		if err != nil {
			return v, err
		}
		s.Restore(start)
		return v, nil
	}
}

// Map transforms the value produced by p.
func Map[T, A, B any](p Parser[T, A], fn func(A) B) Parser[T, B] {
	return func(s *State[T]) (B, error) {
		a, err := p(s)
		if err != nil {
			var zero B
			return zero, err
		}
		return fn(a), nil
	}
}

// Cue runs cue then p, keeping p's value.
func Cue[T, A, V any](cue Parser[T, A], p Parser[T, V]) Parser[T, V] {
	return func(s *State[T]) (V, error) {
		if _, err := cue(s); err != nil {
			var zero V
			return zero, err
		}
		return p(s)
	}
}

// Follow runs p then follow, keeping p's value.
func Follow[T, V, A any](p Parser[T, V], follow Parser[T, A]) Parser[T, V] {
	return func(s *State[T]) (V, error) {
		v, err := p(s)
		if err != nil {
			return v, err
		}
		if _, err := follow(s); err != nil {
			var zero V
			return zero, err
		}
		return v, nil
	}
}
