package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_InOrder(t *testing.T) {
	gen := NewFixedIDGenerator("run-a", "run-b")

	assert.Equal(t, "run-a", gen.Generate())
	assert.Equal(t, "run-b", gen.Generate())
}

func TestFixedIDGenerator_PanicsWhenExhausted(t *testing.T) {
	gen := NewFixedIDGenerator("only")
	gen.Generate()

	assert.PanicsWithValue(t, "FixedIDGenerator: all 1 ids exhausted", func() {
		gen.Generate()
	})
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger()
	assert.NotPanics(t, func() { logger.Info("dropped", "k", 1) })
}
