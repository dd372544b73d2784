// Package relevance filters news headlines down to likely corporate actions.
package relevance

import "strings"

// Scoring weights.
const (
	Positive  = 10
	Negative  = -20
	Threshold = 5
)

// Deal words raise a headline's score.
var positiveKeywords = []string{
	"acquire", "acquisition", "merger", "invest", "investment",
	"sell", "divest", "spin", "stake", "buy", "funding",
}

// Ranking and PR words lower it.
var negativeKeywords = []string{
	"ranked", "best", "award", "named", "survey", "economy",
	"report", "index", "pmi", "score", "recognition",
}

// Score sums the keyword weights found in the lowercased title. Each
// keyword counts once.
func Score(title string) int {
	t := strings.ToLower(title)
	score := 0
	for _, w := range positiveKeywords {
		if strings.Contains(t, w) {
			score += Positive
		}
	}
	for _, w := range negativeKeywords {
		if strings.Contains(t, w) {
			score += Negative
		}
	}
	return score
}

// Relevant reports whether a title reaches the threshold.
func Relevant(title string) bool {
	return Score(title) >= Threshold
}
