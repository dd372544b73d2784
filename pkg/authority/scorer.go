package authority

import (
	"github.com/agentstation/eventmap/pkg/events"
)

// Scorer assigns trust tiers to events.
type Scorer struct {
	table *Table
}

// NewScorer creates a scorer over a table; nil uses the default table.
func NewScorer(table *Table) *Scorer {
	if table == nil {
		table = Default()
	}
	return &Scorer{table: table}
}

// ScoreEvent returns ev with a tier. An event that already carries a valid
// tier keeps it.
func (s *Scorer) ScoreEvent(ev events.Event) (events.Event, Match) {
	if ev.Confidence.Valid() {
		return ev, Match{Tier: ev.Confidence, Marker: "preset"}
	}
	m := s.table.Classify(ev.Source)
	ev.Confidence = m.Tier
	return ev, m
}

// Score grades every event in place and returns the matches by index.
func (s *Scorer) Score(evs []events.Event) []Match {
	matches := make([]Match, len(evs))
	for i := range evs {
		evs[i], matches[i] = s.ScoreEvent(evs[i])
	}
	return matches
}
