package region

import (
	"github.com/pmezard/go-difflib/difflib"
)

// DefaultCutoff is the minimum similarity ratio accepted by the fuzzy stage.
const DefaultCutoff = 0.83

// closeMatch returns the candidate most similar to word, provided its ratio
// reaches cutoff. Candidates are screened with the cheap upper bounds first.
// Equal ratios are broken in favour of the greater candidate string.
func closeMatch(word string, candidates []string, cutoff float64) (string, float64, bool) {
	b := chars(word)
	m := difflib.NewMatcher(nil, b)

	var best string
	bestScore := -1.0
	for _, cand := range candidates {
		m.SetSeq1(chars(cand))
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		score := m.Ratio()
		if score < cutoff {
			continue
		}
		if score > bestScore || (score == bestScore && cand > best) {
			best, bestScore = cand, score
		}
	}
	if bestScore < 0 {
		return "", 0, false
	}
	return best, bestScore, true
}

// Similarity is the difflib ratio between two strings, compared rune by rune.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}

func chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
