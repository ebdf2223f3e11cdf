package service

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// FuzzyMatcher picks the best candidate for a query name, or reports that no
// candidate scores above the acceptance threshold. Kept behind an interface
// so the scoring can be swapped without touching callers.
type FuzzyMatcher interface {
	Match(query string, candidates []string) (index int, score float64, ok bool)
}

type blendedMatcher struct {
	minScore float64
}

// NewBlendedMatcher returns the default matcher: a Levenshtein similarity
// ratio on normalized names, averaged with a token-overlap bonus when any
// tokens are shared. Candidates must score strictly above minScore.
func NewBlendedMatcher(minScore float64) FuzzyMatcher {
	return &blendedMatcher{minScore: minScore}
}

func (m *blendedMatcher) Match(query string, candidates []string) (int, float64, bool) {
	qNorm := NormalizeName(query)
	qTokens := NameTokens(query)

	bestIdx := -1
	bestScore := m.minScore
	for i, candidate := range candidates {
		score := blendScore(qNorm, qTokens, candidate)
		if score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx < 0 {
		return -1, 0, false
	}
	return bestIdx, bestScore, true
}

func blendScore(qNorm string, qTokens []string, candidate string) float64 {
	cNorm := NormalizeName(candidate)
	if qNorm != "" && qNorm == cNorm {
		return 1.0
	}

	sim := similarityRatio(qNorm, cNorm)

	cTokens := NameTokens(candidate)
	common := 0
	for _, qt := range qTokens {
		for _, ct := range cTokens {
			if qt == ct {
				common++
				break
			}
		}
	}
	if common == 0 {
		return sim
	}

	maxTokens := len(qTokens)
	if len(cTokens) > maxTokens {
		maxTokens = len(cTokens)
	}
	overlap := float64(common) / float64(maxTokens)
	return (sim + overlap) / 2
}

func similarityRatio(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
