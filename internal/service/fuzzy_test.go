package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlendedMatcherExactNormalizedMatch(t *testing.T) {
	m := NewBlendedMatcher(0.6)

	idx, score, ok := m.Match("Bavettes de Bœuf", []string{"Filet de poulet", "bavettes boeuf"})
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 1.0, score)
}

func TestBlendedMatcherPicksBestCandidate(t *testing.T) {
	m := NewBlendedMatcher(0.6)

	idx, score, ok := m.Match("Saumon frais entier", []string{
		"Farine T55",
		"Saumon frais",
		"Huile d'olive",
	})
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Greater(t, score, 0.6)
	assert.Less(t, score, 1.0)
}

func TestBlendedMatcherRejectsBelowThreshold(t *testing.T) {
	m := NewBlendedMatcher(0.6)

	_, _, ok := m.Match("Saumon frais entier", []string{"Farine T55", "Beurre doux"})
	assert.False(t, ok)
}

func TestBlendedMatcherEmptyCandidates(t *testing.T) {
	m := NewBlendedMatcher(0.6)

	_, _, ok := m.Match("Saumon", nil)
	assert.False(t, ok)
}
