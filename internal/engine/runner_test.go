package engine

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Success(t *testing.T) {
	v, rest, err := Run(Follow(Many(OneOf('a')), EOF[rune]()), []rune("aa"))
	require.NoError(t, err)
	assert.Equal(t, []rune("aa"), v)
	assert.True(t, rest.AtEnd())
	assert.Equal(t, 2, rest.Offset())
}

func TestRun_RemainderReturned(t *testing.T) {
	_, rest, err := Run(OneOf('a'), []rune("abc"))
	require.NoError(t, err)
	assert.Equal(t, "bc", string(rest.Remaining()))
}

func TestRun_FailureBecomesNoMatch(t *testing.T) {
	tests := []struct {
		name   string
		parser Parser[rune, rune]
		offset int
	}{
		{"recoverable", Cue(OneOf('a'), OneOf('b')), 1},
		{"committed", Tri(Cue(Cue(OneOf('a'), Commit[rune]()), OneOf('b'))), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Run(tt.parser, []rune("ax"))
			require.Error(t, err)
			assert.True(t, IsNoMatch(err))

			nm, ok := AsNoMatch(err)
			require.True(t, ok)
			assert.Equal(t, tt.offset, nm.Offset)
			assert.Equal(t, `expected one of "b", got 'x'`, nm.Description)

			_, isFailure := AsFailure(err)
			assert.False(t, isFailure, "severity does not leak to the caller")
		})
	}
}

func TestRun_ForeignErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	_, _, err := Run(func(*State[rune]) (int, error) { return 0, boom }, []rune("x"))
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsNoMatch(err))
}

func TestNoMatchError_Error(t *testing.T) {
	err := &NoMatchError{Offset: 4, Description: "expected digit, got 'x'"}
	assert.Equal(t, "no match at offset 4: expected digit, got 'x'", err.Error())

	bare := &NoMatchError{Offset: 0}
	assert.Equal(t, "no match at offset 0", bare.Error())
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Severity: Committed, Offset: 3, Description: "unexpected 't'"}
	assert.Equal(t, "unexpected 't' at offset 3 (committed)", f.Error())

	empty := &Failure{Offset: 1}
	assert.Equal(t, "no match at offset 1 (recoverable)", empty.Error())
}

func TestRun_ByteTokens(t *testing.T) {
	v, rest, err := Run(Many1(OneOf[byte]('x', 'y')), []byte("xyz"))
	require.NoError(t, err)
	assert.Equal(t, []byte("xy"), v)
	assert.Equal(t, []byte("z"), rest.Remaining())
}

func TestRun_NonCharacterTokens(t *testing.T) {
	type tok struct{ kind string }
	num := Satisfies(func(k tok) bool { return k.kind == "num" })
	plus := Satisfies(func(k tok) bool { return k.kind == "plus" })

	input := []tok{{"num"}, {"plus"}, {"num"}}
	v, _, err := Run(Follow(Sep1(num, plus), EOF[tok]()), input)
	require.NoError(t, err)
	assert.Len(t, v, 2)
}

// intList parses "[1,2,3]" using only engine primitives.
func intList() Parser[rune, []int] {
	digits := Map(Many1(Satisfies(unicode.IsDigit)), func(rs []rune) int {
		n, _ := strconv.Atoi(string(rs))
		return n
	})
	body := Sep(digits, OneOf(','))
	return Follow(Cue(OneOf('['), Follow(body, OneOf(']'))), EOF[rune]())
}

func renderIntList(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func TestRun_RoundTrip(t *testing.T) {
	cases := [][]int{
		{},
		{0},
		{1, 22, 333},
		{42, 7, 0, 9001},
	}

	for _, want := range cases {
		text := renderIntList(want)

		got, rest, err := runText(intList(), text)
		require.NoError(t, err, "input %q", text)
		assert.Equal(t, want, got)
		assert.Equal(t, "", rest)

		again, _, err := runText(intList(), renderIntList(got))
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestRun_TracerReceivesBacktrack(t *testing.T) {
	rec := &recorder{}
	_, _, err := Run(Choice(String([]rune("ab")), String([]rune("ac"))), []rune("ac"), WithTracer(rec))
	require.NoError(t, err)

	require.NotEmpty(t, rec.events)
	assert.Equal(t, EventBacktrack, rec.events[0].Kind)
	assert.Equal(t, 1, rec.events[0].Offset)
	assert.Equal(t, 0, rec.events[0].Target)
}
