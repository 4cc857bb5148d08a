package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandInt_WithinBounds(t *testing.T) {
	r := NewThreadsafeRand(42)
	seenMin, seenMax := false, false
	for i := 0; i < 1000; i++ {
		v := RandInt(r, 1, 5)
		assert.GreaterOrEqual(t, v, 1)
		assert.LessOrEqual(t, v, 5)
		seenMin = seenMin || v == 1
		seenMax = seenMax || v == 5
	}
	assert.True(t, seenMin)
	assert.True(t, seenMax)
}

func TestRandInt_DegenerateRange(t *testing.T) {
	r := NewThreadsafeRand(1)
	assert.Equal(t, 7, RandInt(r, 7, 7))
	assert.Equal(t, 7, RandInt(r, 7, 3))
}

func TestRandBool(t *testing.T) {
	r := NewThreadsafeRand(1)
	for i := 0; i < 100; i++ {
		assert.False(t, RandBool(r, 0, 3))
		assert.True(t, RandBool(r, 3, 3))
	}
}

func TestRandChoice(t *testing.T) {
	r := NewThreadsafeRand(1)
	choices := []string{"a", "b", "c"}
	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		seen[RandChoice(r, choices)] = true
	}
	assert.Len(t, seen, 3)
}
