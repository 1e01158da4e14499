package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTri_SuccessKeepsAdvance(t *testing.T) {
	v, s, err := parseWith(Tri(String([]rune("ab"))), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ab", string(v))
	assert.Equal(t, 2, s.Offset())
	assert.Equal(t, 0, s.Depth(), "scope is closed after success")
}

func TestTri_RecoverableRestores(t *testing.T) {
	_, s, err := parseWith(Tri(String([]rune("abc"))), "abx")
	require.Error(t, err)

	f, _ := AsFailure(err)
	assert.Equal(t, Recoverable, f.Severity)
	assert.Equal(t, 2, f.Offset, "failure keeps its own offset")
	assert.Equal(t, 0, s.Offset(), "cursor is rewound")
	assert.Equal(t, 0, s.Depth())
}

func TestTri_CommitEscalates(t *testing.T) {
	p := Tri(func(s *State[rune]) (rune, error) {
		if _, err := OneOf('a')(s); err != nil {
			return 0, err
		}
		s.Commit()
		return OneOf('b')(s)
	})

	_, s, err := parseWith(p, "ax")
	require.Error(t, err)

	f, _ := AsFailure(err)
	assert.Equal(t, Committed, f.Severity)
	assert.Equal(t, 1, f.Offset)
	assert.Equal(t, 1, s.Offset(), "committed failure is not rewound")
}

func TestTri_FailureBeforeCommitIsRecoverable(t *testing.T) {
	p := Tri(func(s *State[rune]) (rune, error) {
		if _, err := OneOf('a')(s); err != nil {
			return 0, err
		}
		s.Commit()
		return OneOf('b')(s)
	})

	_, s, err := parseWith(p, "xb")
	assert.True(t, IsRecoverable(err))
	assert.Equal(t, 0, s.Offset())
}

func TestTri_CommittedPassesThroughOuterScope(t *testing.T) {
	inner := Tri(Cue(Cue(OneOf('a'), Commit[rune]()), OneOf('b')))
	outer := Tri(Cue(OneOf('x'), inner))

	_, s, err := parseWith(outer, "xac")
	require.Error(t, err)
	assert.True(t, IsCommitted(err))
	assert.Equal(t, 2, s.Offset(), "outer scope does not restore a committed failure")
}

func TestTri_CommitIsScoped(t *testing.T) {
	// The inner scope commits and succeeds; the outer scope never committed,
	// so a later failure in the outer scope stays recoverable.
	inner := Tri(Cue(Commit[rune](), OneOf('a')))
	outer := Tri(Cue(inner, OneOf('b')))

	_, s, err := parseWith(outer, "ax")
	assert.True(t, IsRecoverable(err))
	assert.Equal(t, 0, s.Offset())
}

func TestTri_ForeignErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	p := Tri(Cue(OneOf('a'), func(*State[rune]) (int, error) { return 0, boom }))

	_, s, err := parseWith(p, "ab")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.Offset(), "foreign errors are not restored")
}

func TestChoice_FirstSuccessWins(t *testing.T) {
	p := Choice(
		Map(String([]rune("ab")), func(r []rune) string { return "first" }),
		Map(String([]rune("a")), func(r []rune) string { return "second" }),
	)

	v, rest, err := runText(p, "abc")
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, "c", rest)
}

func TestChoice_BacktracksFully(t *testing.T) {
	p2 := String([]rune("abd"))
	p := Choice(String([]rune("abc")), p2)

	_, viaChoice, err := parseWith(p, "abdz")
	require.NoError(t, err)

	_, alone, err := parseWith(p2, "abdz")
	require.NoError(t, err)

	assert.Equal(t, alone.Offset(), viaChoice.Offset())
}

func TestChoice_LongestFailureReported(t *testing.T) {
	p := Choice(
		String([]rune("ax")),
		String([]rune("abx")),
		String([]rune("q")),
	)

	_, s, err := parseWith(p, "abc")
	require.Error(t, err)

	f, _ := AsFailure(err)
	assert.Equal(t, Recoverable, f.Severity)
	assert.Equal(t, 2, f.Offset)
	assert.Equal(t, `expected "abx", got 'c'`, f.Description)
	assert.Equal(t, 0, s.Offset(), "cursor is back at the start")
}

func TestChoice_TieGoesToEarliest(t *testing.T) {
	p := Choice(
		Fail[rune, int]("first"),
		Fail[rune, int]("second"),
	)

	_, _, err := parseWith(p, "x")
	f, _ := AsFailure(err)
	assert.Equal(t, "first", f.Description)
}

func TestChoice_CommittedStopsSearch(t *testing.T) {
	tried := false
	p := Choice(
		Tri(Cue(Cue(OneOf('a'), Commit[rune]()), OneOf('b'))),
		func(s *State[rune]) (rune, error) {
			tried = true
			return AnyToken[rune]()(s)
		},
	)

	_, s, err := parseWith(p, "ac")
	require.Error(t, err)
	assert.True(t, IsCommitted(err))
	assert.False(t, tried, "later alternatives are not attempted")
	assert.Equal(t, 1, s.Offset())
}

// committingAB matches 'a', commits the enclosing scope, then expects 'b'.
// It has no Tri of its own.
func committingAB() Parser[rune, string] {
	return Map(Cue(Cue(OneOf('a'), Commit[rune]()), OneOf('b')), func(rune) string { return "ab" })
}

func TestChoice_CommitInAlternativeCuts(t *testing.T) {
	tried := false
	p := Tri(Choice(
		committingAB(),
		func(s *State[rune]) (string, error) {
			tried = true
			return Map(String([]rune("ac")), func(r []rune) string { return string(r) })(s)
		},
	))

	_, s, err := parseWith(p, "ac")
	require.Error(t, err)
	assert.True(t, IsCommitted(err))
	assert.False(t, tried, "the alternative after the commit is not attempted")

	f, _ := AsFailure(err)
	assert.Equal(t, 1, f.Offset)
	assert.Equal(t, 1, s.Offset(), "cut failure is not rewound")
	assert.Equal(t, 0, s.Depth())
}

func TestChoice_CutLeavesTheEnclosingScope(t *testing.T) {
	ac := Map(String([]rune("ac")), func(r []rune) string { return string(r) })
	acy := Map(String([]rune("acy")), func(r []rune) string { return string(r) })
	p := Choice(Tri(Follow(Choice(committingAB(), ac), OneOf('x'))), acy)

	// The cut happens where the committed alternative broke, not at the
	// unrelated 'x' further on.
	_, _, err := parseWith(p, "acy")
	require.Error(t, err)
	assert.True(t, IsCommitted(err))
	f, _ := AsFailure(err)
	assert.Equal(t, 1, f.Offset)
}

func TestChoice_CommitBeforeChoiceDoesNotCut(t *testing.T) {
	// The scope was already committed when Choice started, so a failing
	// alternative is still abandoned in favour of the next one.
	p := Tri(Cue(Commit[rune](), Choice(String([]rune("ab")), String([]rune("ac")))))

	v, rest, err := runText(p, "ac")
	require.NoError(t, err)
	assert.Equal(t, "ac", string(v))
	assert.Equal(t, "", rest)
}

func TestChoice_CutTraced(t *testing.T) {
	rec := &recorder{}
	_, _, err := runText(Choice(committingAB(), Succeed[rune]("none")), "ac", WithTracer(rec))
	require.Error(t, err)

	kinds := rec.kinds()
	assert.Contains(t, kinds, EventCommit)
	assert.Contains(t, kinds, EventEscalate)
}

func TestChoice_NoAlternatives(t *testing.T) {
	_, _, err := parseWith(Choice[rune, int](), "x")
	assert.True(t, IsRecoverable(err))
}

func TestOptional(t *testing.T) {
	v, rest, err := runText(Optional(OneOf('a'), 'z'), "b")
	require.NoError(t, err)
	assert.Equal(t, 'z', v)
	assert.Equal(t, "b", rest)

	v, rest, err = runText(Optional(OneOf('a'), 'z'), "ab")
	require.NoError(t, err)
	assert.Equal(t, 'a', v)
	assert.Equal(t, "b", rest)
}

func TestOptional_CommittedPropagates(t *testing.T) {
	p := Optional(Tri(Cue(Cue(OneOf('a'), Commit[rune]()), OneOf('b'))), 'z')

	_, _, err := parseWith(p, "ax")
	assert.True(t, IsCommitted(err))
}

func TestNotFollowedBy(t *testing.T) {
	_, s, err := parseWith(NotFollowedBy(OneOf('a')), "b")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Offset())

	_, s, err = parseWith(Cue(OneOf('x'), NotFollowedBy(String([]rune("ab")))), "xabc")
	require.Error(t, err)
	f, _ := AsFailure(err)
	assert.Equal(t, Recoverable, f.Severity)
	assert.Equal(t, 1, f.Offset, "fails at the original position")
	assert.Equal(t, 1, s.Offset(), "consumed input is discarded")
	assert.Equal(t, "unexpected 'a'", f.Description)
}

func TestNotFollowedBy_RestoresPartialConsumption(t *testing.T) {
	_, s, err := parseWith(NotFollowedBy(String([]rune("abc"))), "abx")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Offset())
}

func TestNotFollowedBy_CommittedPropagates(t *testing.T) {
	p := NotFollowedBy(Tri(Cue(Cue(OneOf('a'), Commit[rune]()), OneOf('b'))))

	_, _, err := parseWith(p, "ax")
	assert.True(t, IsCommitted(err))
}

func TestNotFollowedBy_DiscardsCommitOfMatch(t *testing.T) {
	// p commits and matches, so NotFollowedBy fails. That commit must not
	// leak into the Tri around it, or the outer Choice would stop before
	// trying "qy".
	committingQ := Cue(Commit[rune](), OneOf('q'))
	first := Tri(Cue(NotFollowedBy(committingQ), String([]rune("qz"))))
	p := Choice(first, String([]rune("qy")))

	v, rest, err := runText(p, "qy")
	require.NoError(t, err)
	assert.Equal(t, "qy", string(v))
	assert.Equal(t, "", rest)
}

func TestNotFollowedBy_CommitThenFailureCuts(t *testing.T) {
	p := Tri(NotFollowedBy(committingAB()))

	_, s, err := parseWith(p, "ax")
	require.Error(t, err)
	assert.True(t, IsCommitted(err))
	assert.Equal(t, 1, s.Offset())
}

func TestLookahead(t *testing.T) {
	v, s, err := parseWith(Lookahead(String([]rune("ab"))), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ab", string(v))
	assert.Equal(t, 0, s.Offset())
}

func TestFollow(t *testing.T) {
	v, rest, err := runText(Follow(OneOf('a'), OneOf(';')), "a;b")
	require.NoError(t, err)
	assert.Equal(t, 'a', v)
	assert.Equal(t, "b", rest)
}

func TestScenario_FirstAlternativeMatches(t *testing.T) {
	first := Follow(Many1(OneOf('a')), OneOf('b'))
	second := Map(String([]rune("xy")), func(r []rune) []rune { return r })
	p := Choice(first, second)

	v, rest, err := runText(p, "ab")
	require.NoError(t, err)
	assert.Equal(t, []rune{'a'}, v)
	assert.Equal(t, "", rest)
}

func TestScenario_CommittedKeyword(t *testing.T) {
	p := Choice(keyword("let"), identifier())

	// "let" followed by an identifier character: the commit turns the
	// not-followed-by failure into a syntax error.
	_, s, err := parseWith(p, "letter")
	require.Error(t, err)
	assert.True(t, IsCommitted(err))

	f, _ := AsFailure(err)
	assert.Equal(t, 3, f.Offset)
	assert.Equal(t, "unexpected 't'", f.Description)
	assert.Equal(t, 3, s.Offset(), "cursor is left at the mismatch")

	// Without a trailing identifier character the keyword matches.
	v, rest, err := runText(p, "let x")
	require.NoError(t, err)
	assert.Equal(t, "let", v)
	assert.Equal(t, " x", rest)

	// A different word falls through to the identifier alternative.
	v, _, err = runText(p, "lemon")
	require.NoError(t, err)
	assert.Equal(t, "lemon", v)
}

func TestScenario_CommittedKeywordViaRunner(t *testing.T) {
	_, rest, err := Run(Choice(keyword("let"), identifier()), []rune("letter"))
	require.Error(t, err)

	nm, ok := AsNoMatch(err)
	require.True(t, ok)
	assert.Equal(t, 3, nm.Offset)
	assert.Equal(t, 3, rest.Offset())
}

func TestTri_TraceEvents(t *testing.T) {
	rec := &recorder{}
	_, _, err := runText(Choice(keyword("let"), identifier()), "letter", WithTracer(rec))
	require.Error(t, err)

	assert.Contains(t, rec.kinds(), EventCommit)
	assert.Contains(t, rec.kinds(), EventEscalate)
}
