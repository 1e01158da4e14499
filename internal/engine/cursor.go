package engine

// Cursor is a persistent view of the remaining input.
//
// It keeps the whole input slice plus an absolute offset, so copying a Cursor
// is a snapshot and assigning one back is a restore. The input slice is never
// mutated.
type Cursor[T any] struct {
	tokens []T
	offset int
}

// NewCursor creates a cursor positioned at the start of tokens.
func NewCursor[T any](tokens []T) Cursor[T] {
	return Cursor[T]{tokens: tokens}
}

// Offset returns the absolute position from the start of input.
func (c Cursor[T]) Offset() int {
	return c.offset
}

// Remaining returns the tokens not yet consumed.
// The returned slice shares storage with the input and must not be modified.
func (c Cursor[T]) Remaining() []T {
	return c.tokens[c.offset:]
}

// Len returns the number of tokens not yet consumed.
func (c Cursor[T]) Len() int {
	return len(c.tokens) - c.offset
}

// AtEnd reports whether the input is exhausted.
func (c Cursor[T]) AtEnd() bool {
	return c.offset >= len(c.tokens)
}

// First returns the next token without consuming it.
// ok is false at end of input.
func (c Cursor[T]) First() (tok T, ok bool) {
	if c.AtEnd() {
		return tok, false
	}
	return c.tokens[c.offset], true
}

// Advance returns a cursor n tokens further on, clamped to end of input.
func (c Cursor[T]) Advance(n int) Cursor[T] {
	c.offset += n
	if c.offset > len(c.tokens) {
		c.offset = len(c.tokens)
	}
	return c
}

// Between returns the tokens consumed from start up to c.
// start must be an earlier snapshot of the same input.
func (c Cursor[T]) Between(start Cursor[T]) []T {
	if start.offset >= c.offset {
		return nil
	}
	return c.tokens[start.offset:c.offset]
}
