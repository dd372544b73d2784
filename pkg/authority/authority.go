// Package authority grades event sources into trust tiers.
//
// A Table holds trust markers: patterns matched against the words of a
// source label or URL. Tier A markers win over tier B markers; a source
// matching neither is tier C.
package authority

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/agentstation/eventmap/pkg/errors"
	"github.com/agentstation/eventmap/pkg/events"
)

// Marker maps a source pattern to a tier. A pattern is one or more words;
// each word may use shell wildcards (e.g. "*newswire").
type Marker struct {
	Pattern string      `json:"pattern" yaml:"pattern"`
	Tier    events.Tier `json:"tier" yaml:"tier"`
}

// Match explains a classification.
type Match struct {
	Tier events.Tier
	// Marker is the pattern that matched; empty when no marker matched.
	Marker string
}

// Reason renders the match for provenance output.
func (m Match) Reason() string {
	if m.Marker == "" {
		return "no trust marker matched"
	}
	return "matched trust marker " + m.Marker
}

// Table is an ordered set of trust markers.
type Table struct {
	markers []compiledMarker
}

type compiledMarker struct {
	Marker
	words []string
}

// DefaultMarkers returns the built-in marker set.
func DefaultMarkers() []Marker {
	a := []string{"finnhub", "sec", "sec.gov", "edgar", "reuters", "bloomberg", "dow jones"}
	b := []string{
		"prnewswire", "pr newswire", "businesswire", "business wire", "globenewswire",
		"cnbc", "forbes", "wsj", "wall street journal", "financial times", "marketwatch",
		"yahoo finance",
	}

	out := make([]Marker, 0, len(a)+len(b))
	for _, p := range a {
		out = append(out, Marker{Pattern: p, Tier: events.TierA})
	}
	for _, p := range b {
		out = append(out, Marker{Pattern: p, Tier: events.TierB})
	}
	return out
}

// New creates a table from markers. Only tiers A and B may be assigned by a
// marker; C is the fallback.
func New(markers ...Marker) (*Table, error) {
	t := &Table{markers: make([]compiledMarker, 0, len(markers))}
	for _, m := range markers {
		if m.Tier != events.TierA && m.Tier != events.TierB {
			return nil, errors.NewValidationError("tier", m.Tier, "trust markers must assign tier A or B")
		}
		words := tokenize(m.Pattern)
		if len(words) == 0 {
			return nil, errors.NewValidationError("pattern", m.Pattern, "cannot be empty")
		}
		for _, w := range words {
			if _, err := filepath.Match(w, ""); err != nil {
				return nil, errors.NewValidationError("pattern", m.Pattern, err.Error())
			}
		}
		t.markers = append(t.markers, compiledMarker{Marker: m, words: words})
	}
	return t, nil
}

// Default returns a table with the built-in markers.
func Default() *Table {
	t, err := New(DefaultMarkers()...)
	if err != nil {
		panic(err)
	}
	return t
}

// Markers returns the markers in table order.
func (t *Table) Markers() []Marker {
	out := make([]Marker, len(t.markers))
	for i, m := range t.markers {
		out[i] = m.Marker
	}
	return out
}

// Classify grades a source. Among matching markers the better tier wins,
// then the more specific (longer) pattern, then table order.
func (t *Table) Classify(source string) Match {
	words := tokenize(source)
	best := Match{Tier: events.TierC}
	var bestLen int

	for _, m := range t.markers {
		if !containsRun(words, m.words) {
			continue
		}
		better := best.Marker == "" ||
			(m.Tier == events.TierA && best.Tier != events.TierA) ||
			(m.Tier == best.Tier && len(m.Pattern) > bestLen)
		if better {
			best = Match{Tier: m.Tier, Marker: m.Pattern}
			bestLen = len(m.Pattern)
		}
	}
	return best
}

// MatchesPattern reports whether one word matches one pattern word.
func MatchesPattern(word, pattern string) bool {
	if word == pattern {
		return true
	}
	matched, err := filepath.Match(pattern, word)
	return err == nil && matched
}

// containsRun reports whether pattern occurs as a contiguous run in words.
func containsRun(words, pattern []string) bool {
	for i := 0; i+len(pattern) <= len(words); i++ {
		ok := true
		for j, p := range pattern {
			if !MatchesPattern(words[i+j], p) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// tokenize splits a lowercased label into words at anything that is not a
// letter, digit, or wildcard character.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '*' && r != '?'
	})
}
